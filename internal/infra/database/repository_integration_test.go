//go:build integration

package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hirepro/funnel/internal/entity"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL, applies
// migrations and empties the tables. Tests are skipped when the variable is
// unset so the suite stays runnable without infrastructure.
func setupTestDB(t *testing.T) (*LeadRepository, *ExecutiveRepository, *AssignmentRepository) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDBConnection(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"assignments", "leads", "executives"} {
		_, err := db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}

	return NewLeadRepository(db), NewExecutiveRepository(db), NewAssignmentRepository(db)
}

func mustLead(t *testing.T, leads *LeadRepository, phone, name string) *entity.Lead {
	t.Helper()
	lead, err := entity.NewLead(phone, phone[len(phone)-10:])
	require.NoError(t, err)
	lead.Name = name
	require.NoError(t, leads.Upsert(context.Background(), lead))
	return lead
}

func mustExecutive(t *testing.T, execs *ExecutiveRepository, phone, username string) *entity.Executive {
	t.Helper()
	exec, err := entity.NewExecutive(phone, username)
	require.NoError(t, err)
	require.NoError(t, execs.AddOrReactivate(context.Background(), exec))
	return exec
}

func TestIntegrationUpsertIsIdempotentByPhone(t *testing.T) {
	leads, _, _ := setupTestDB(t)
	ctx := context.Background()

	first := mustLead(t, leads, "+12025550123", "Ada")
	require.Len(t, first.WorkCode, entity.WorkCodeLength)

	// Resubmission arrives as a brand-new entity with the same phone. Empty
	// fields must not clobber stored ones, and the code must survive.
	second, err := entity.NewLead("+12025550123", "2025550123")
	require.NoError(t, err)
	second.Email = "ada@example.com"
	require.NoError(t, leads.Upsert(ctx, second))

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.WorkCode, second.WorkCode)
	require.Equal(t, "Ada", second.Name)
	require.Equal(t, "ada@example.com", second.Email)

	stored, err := leads.FindByPhone(ctx, "+12025550123")
	require.NoError(t, err)
	require.Equal(t, first.WorkCode, stored.WorkCode)
}

func TestIntegrationEnsureWorkCodeSingleWriterWins(t *testing.T) {
	leads, _, _ := setupTestDB(t)
	ctx := context.Background()

	lead := mustLead(t, leads, "+12025550123", "Ada")

	// Simulate a row that predates code issuance.
	_, err := leads.DB.ExecContext(ctx,
		"UPDATE leads SET work_code = NULL WHERE id = $1", lead.ID)
	require.NoError(t, err)

	// Two verifications race; exactly one generated code may stick.
	codes := make([]string, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stale := &entity.Lead{ID: lead.ID, PhoneE164: lead.PhoneE164}
			codes[i], errs[i] = leads.EnsureWorkCode(ctx, stale)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, codes[0], codes[1])
	require.Len(t, codes[0], entity.WorkCodeLength)

	stored, err := leads.FindByPhone(ctx, lead.PhoneE164)
	require.NoError(t, err)
	require.Equal(t, codes[0], stored.WorkCode)
}

func TestIntegrationEnsureWorkCodeLeavesStoredCodeAlone(t *testing.T) {
	leads, _, _ := setupTestDB(t)
	ctx := context.Background()

	lead := mustLead(t, leads, "+12025550123", "Ada")
	issued := lead.WorkCode

	// A caller holding a stale row without the code must get the stored one
	// back, not a replacement.
	stale := &entity.Lead{ID: lead.ID, PhoneE164: lead.PhoneE164}
	code, err := leads.EnsureWorkCode(ctx, stale)
	require.NoError(t, err)
	require.Equal(t, issued, code)

	stored, err := leads.FindByPhone(ctx, lead.PhoneE164)
	require.NoError(t, err)
	require.Equal(t, issued, stored.WorkCode)
}

func TestIntegrationMarkGroupPostedExactlyOnce(t *testing.T) {
	leads, _, _ := setupTestDB(t)
	ctx := context.Background()

	lead := mustLead(t, leads, "+12025550123", "Ada")

	const callers = 8
	wins := make([]bool, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i], errs[i] = leads.MarkGroupPosted(ctx, lead.ID)
		}(i)
	}
	wg.Wait()

	total := 0
	for i := range wins {
		require.NoError(t, errs[i])
		if wins[i] {
			total++
		}
	}
	require.Equal(t, 1, total)

	won, err := leads.MarkGroupPosted(ctx, lead.ID)
	require.NoError(t, err)
	require.False(t, won)
}

func TestIntegrationAssignIsIdempotentPerLead(t *testing.T) {
	leads, execs, assignments := setupTestDB(t)
	ctx := context.Background()

	mustExecutive(t, execs, "+12025550199", "recruiter")
	lead := mustLead(t, leads, "+12025550123", "Ada")

	first, exec1, err := assignments.Assign(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, exec1)
	require.Equal(t, 1, exec1.AssignedCount)

	second, exec2, err := assignments.Assign(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, exec1.ID, exec2.ID)
	// The repeat must not bump the counter again.
	require.Equal(t, 1, exec2.AssignedCount)

	// A writer that slips past the existing-row check hits the unique index
	// and takes the fetch-existing path.
	_, _, err = assignments.create(ctx, lead.ID)
	require.True(t, isUniqueViolation(err, "assignments_lead_id_key"))

	again, exec3, err := assignments.Assign(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, exec3.AssignedCount)
}

func TestIntegrationConcurrentAssignProducesOneRow(t *testing.T) {
	leads, execs, assignments := setupTestDB(t)
	ctx := context.Background()

	mustExecutive(t, execs, "+12025550199", "recruiter")
	lead := mustLead(t, leads, "+12025550123", "Ada")

	const callers = 4
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assignment, _, err := assignments.Assign(ctx, lead.ID)
			if err == nil {
				ids[i] = assignment.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	for i := 1; i < callers; i++ {
		require.Equal(t, ids[0], ids[i])
	}

	roster, err := execs.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, 1, roster[0].AssignedCount)
}

func TestIntegrationAssignRoundRobin(t *testing.T) {
	leads, execs, assignments := setupTestDB(t)
	ctx := context.Background()

	mustExecutive(t, execs, "+12025550197", "one")
	mustExecutive(t, execs, "+12025550198", "two")

	phones := []string{"+12025550121", "+12025550122", "+12025550123", "+12025550124"}
	for _, p := range phones {
		lead := mustLead(t, leads, p, "Lead")
		_, exec, err := assignments.Assign(ctx, lead.ID)
		require.NoError(t, err)
		require.NotNil(t, exec)
	}

	roster, err := execs.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, 2, roster[0].AssignedCount)
	require.Equal(t, 2, roster[1].AssignedCount)
}

func TestIntegrationClaimPendingAfterRosterGrows(t *testing.T) {
	leads, execs, assignments := setupTestDB(t)
	ctx := context.Background()

	lead := mustLead(t, leads, "+12025550123", "Ada")

	assignment, exec, err := assignments.Assign(ctx, lead.ID)
	require.NoError(t, err)
	require.Nil(t, exec)
	require.True(t, assignment.Pending())

	claimed, err := assignments.ClaimPending(ctx)
	require.NoError(t, err)
	require.Zero(t, claimed) // still nobody active

	mustExecutive(t, execs, "+12025550199", "recruiter")

	claimed, err = assignments.ClaimPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, claimed)

	got, gotExec, err := assignments.findWithExecutive(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, got.ID)
	require.NotNil(t, gotExec)
	require.Equal(t, 1, gotExec.AssignedCount)
}
