package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

// The funnel counters must be scrapeable through the default registry,
// which is what both processes serve on /metrics.
func TestFunnelCountersAreScrapeable(t *testing.T) {
	RecordLeadCaptured()
	RecordVerification("verified")
	RecordAssignment("assigned")
	RecordGroupPost()
	RecordNotificationFailure("group")

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "leads_captured_total")
	assert.Contains(t, body, `verifications_total{result="verified"}`)
	assert.Contains(t, body, `assignments_total{outcome="assigned"}`)
	assert.Contains(t, body, "group_posts_total")
	assert.Contains(t, body, `notification_failures_total{channel="group"}`)
}

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lead", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	scrape := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(),
		`http_requests_total{method="GET",path="/api/lead",status="202"}`)
}
