package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportCountsRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := New(reg)
	client := &http.Client{Transport: m.Transport(http.DefaultTransport)}

	for _, path := range []string{"/login", "/transactions", "/missing"} {
		resp, err := client.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("404", "get")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestObserveAction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAction("login", OutcomeFailed)
	m.ObserveAction("login", OutcomeFailed)
	m.ObserveAction("create", OutcomeSucceeded)

	expected := `
# HELP payment_web_client_actions_total Page actions by name and outcome
# TYPE payment_web_client_actions_total counter
payment_web_client_actions_total{action="create",outcome="succeeded"} 1
payment_web_client_actions_total{action="login",outcome="failed"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "payment_web_client_actions_total"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveAction("login", OutcomeSucceeded) })
	assert.Equal(t, http.DefaultTransport, m.Transport(http.DefaultTransport))
}
