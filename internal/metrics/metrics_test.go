package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(analysesTotal.WithLabelValues("schema"))
	beforeOK := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess))

	ObserveAnalysis(2*time.Second, "schema")
	ObserveAnalysis(-time.Second, "")

	assert.Equal(t, before+1, testutil.ToFloat64(analysesTotal.WithLabelValues("schema")))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess)))
}

func TestCounters(t *testing.T) {
	truncated := testutil.ToFloat64(inputTruncatedTotal)
	stale := testutil.ToFloat64(staleResolutionsTotal)

	InputTruncated()
	StaleResolution()
	StaleResolution()

	assert.Equal(t, truncated+1, testutil.ToFloat64(inputTruncatedTotal))
	assert.Equal(t, stale+2, testutil.ToFloat64(staleResolutionsTotal))
}

func TestObserveHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))

	ObserveHTTPRequest("", "GET", 404, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}
