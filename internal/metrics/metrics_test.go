package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/storefront-api/internal/metrics"
)

func TestOutcomeCounters(t *testing.T) {
	m := metrics.New("storefront")

	m.RegistrationOutcome(metrics.OutcomeSuccess)
	m.RegistrationOutcome(metrics.OutcomeDuplicate)
	m.LoginOutcome(metrics.OutcomeInvalid)
	m.LoginOutcome(metrics.OutcomeInvalid)
	m.AuthorizationDecision("products.create", metrics.DecisionForbidden)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.OutcomeDuplicate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Logins.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Authorizations.WithLabelValues("products.create", metrics.DecisionForbidden)))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RegistrationOutcome(metrics.OutcomeSuccess)
		m.LoginOutcome(metrics.OutcomeSuccess)
		m.AuthorizationDecision("op", metrics.DecisionAllowed)
	})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	m.Instrument("route", inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestInstrumentAndHandler(t *testing.T) {
	m := metrics.New("storefront")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	w := httptest.NewRecorder()
	m.Instrument("products.create", inner).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/products", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `storefront_http_request_duration_seconds_count{method="POST",route="products.create",status="201"} 1`))
}
