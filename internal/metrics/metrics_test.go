package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(toolDispatchTotal.WithLabelValues("read_sheet", "ok"))
	ToolDispatched("read_sheet", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(toolDispatchTotal.WithLabelValues("read_sheet", "ok")))

	runs := testutil.ToFloat64(agentRunsTotal.WithLabelValues("done"))
	AgentRun("done", 3)
	assert.Equal(t, runs+1, testutil.ToFloat64(agentRunsTotal.WithLabelValues("done")))

	retries := testutil.ToFloat64(engineRetriesTotal)
	EngineRetry()
	assert.Equal(t, retries+1, testutil.ToFloat64(engineRetriesTotal))
}

func TestHandlerExposesNamespace(t *testing.T) {
	ToolDispatched("search_drive", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "drivedesk_tool_dispatch_total")
}
