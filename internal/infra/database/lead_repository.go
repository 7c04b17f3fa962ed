package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hirepro/funnel/internal/entity"
)

// maxCodeAttempts bounds the uniqueness retry loop for work codes. With a
// 32^8 space collisions are astronomically unlikely, so hitting the bound
// means something else is wrong; the crypto-random fallback keeps the
// request moving anyway.
const maxCodeAttempts = 5

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, name, email, phone_e164, phone_last10, raw_phone, country,
	gender, age, note, ip, work_code, group_posted_at, created_at, updated_at`

func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	if lead.PhoneE164 == "" {
		return entity.ErrLeadPhoneRequired
	}

	query := `
		INSERT INTO leads (id, name, email, phone_e164, phone_last10, raw_phone,
			country, gender, age, note, ip, work_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (phone_e164)
		DO UPDATE SET
			name = COALESCE(EXCLUDED.name, leads.name),
			email = COALESCE(EXCLUDED.email, leads.email),
			raw_phone = COALESCE(EXCLUDED.raw_phone, leads.raw_phone),
			country = COALESCE(EXCLUDED.country, leads.country),
			gender = COALESCE(EXCLUDED.gender, leads.gender),
			age = COALESCE(EXCLUDED.age, leads.age),
			note = COALESCE(EXCLUDED.note, leads.note),
			ip = COALESCE(EXCLUDED.ip, leads.ip),
			updated_at = now()
		RETURNING ` + leadColumns

	// The work code rides along on the insert path only; ON CONFLICT leaves
	// the stored one untouched, which is what makes re-submission safe. The
	// retry covers the (theoretical) code collision with another lead.
	for attempt := 0; ; attempt++ {
		code := entity.NewWorkCode()
		if attempt >= maxCodeAttempts {
			code = entity.FallbackWorkCode()
		}

		row := r.DB.QueryRowContext(ctx, query,
			lead.ID,
			nullString(lead.Name),
			nullString(lead.Email),
			lead.PhoneE164,
			lead.PhoneLast10,
			nullString(lead.RawPhone),
			nullString(lead.Country),
			nullString(lead.Gender),
			nullInt(lead.Age),
			nullString(lead.Note),
			nullString(lead.IP),
			code,
		)

		err := scanLead(row, lead)
		if isUniqueViolation(err, "leads_work_code_key") && attempt < maxCodeAttempts {
			continue
		}
		return err
	}
}

func (r *LeadRepository) FindByPhone(ctx context.Context, e164 string) (*entity.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE phone_e164 = $1`, leadColumns)
	lead := &entity.Lead{}
	err := scanLead(r.DB.QueryRowContext(ctx, query, e164), lead)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) FindByLastDigits(ctx context.Context, last10 string) (*entity.Lead, error) {
	if last10 == "" {
		return nil, entity.ErrLeadNotFound
	}
	query := fmt.Sprintf(
		`SELECT %s FROM leads WHERE phone_last10 = $1 ORDER BY created_at ASC LIMIT 1`,
		leadColumns,
	)
	lead := &entity.Lead{}
	err := scanLead(r.DB.QueryRowContext(ctx, query, last10), lead)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) EnsureWorkCode(ctx context.Context, lead *entity.Lead) (string, error) {
	if lead.WorkCode != "" {
		return lead.WorkCode, nil
	}

	// Single check-and-set: only the writer that still sees no code gets to
	// set one. A stored code is never replaced.
	query := `
		UPDATE leads SET work_code = $1, updated_at = now()
		WHERE id = $2 AND work_code IS NULL`

	for attempt := 0; ; attempt++ {
		code := entity.NewWorkCode()
		if attempt >= maxCodeAttempts {
			code = entity.FallbackWorkCode()
		}

		res, err := r.DB.ExecContext(ctx, query, code, lead.ID)
		if isUniqueViolation(err, "leads_work_code_key") && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			return "", err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return "", err
		}
		if affected == 0 {
			// A concurrent verification won the race; theirs is the code.
			var existing string
			err := r.DB.QueryRowContext(ctx,
				`SELECT work_code FROM leads WHERE id = $1`, lead.ID,
			).Scan(&existing)
			if err != nil {
				return "", err
			}
			lead.WorkCode = existing
			return existing, nil
		}

		lead.WorkCode = code
		return code, nil
	}
}

func (r *LeadRepository) MarkGroupPosted(ctx context.Context, leadID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET group_posted_at = now(), updated_at = now()
		WHERE id = $1 AND group_posted_at IS NULL`, leadID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner, lead *entity.Lead) error {
	var (
		name, email, rawPhone, country, gender, note, ip, workCode sql.NullString
		age                                                        sql.NullInt64
		groupPostedAt                                              sql.NullTime
	)

	err := row.Scan(
		&lead.ID, &name, &email, &lead.PhoneE164, &lead.PhoneLast10, &rawPhone,
		&country, &gender, &age, &note, &ip, &workCode, &groupPostedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return err
	}

	lead.Name = name.String
	lead.Email = email.String
	lead.RawPhone = rawPhone.String
	lead.Country = country.String
	lead.Gender = gender.String
	lead.Age = int(age.Int64)
	lead.Note = note.String
	lead.IP = ip.String
	lead.WorkCode = workCode.String
	lead.GroupPostedAt = nil
	if groupPostedAt.Valid {
		t := groupPostedAt.Time
		lead.GroupPostedAt = &t
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
