package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// StatusHandler reports service health. The LLM check is live, so the
// endpoint doubles as an API-key smoke test.
type StatusHandler struct {
	llm     interfaces.LLMService
	started time.Time
	logger  arbor.ILogger
}

func NewStatusHandler(llm interfaces.LLMService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		llm:     llm,
		started: time.Now(),
		logger:  logger,
	}
}

// HealthHandler handles GET /healthz
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}

	if err := h.llm.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("LLM health check failed")
		status["status"] = "degraded"
		status["llm_error"] = err.Error()
		WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}
