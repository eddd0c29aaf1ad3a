package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Control actions accepted by POST /control/{action}.
const (
	actionStart = "start"
	actionStop  = "stop"
	actionReset = "reset"
)

// handleControl starts, stops or resets the loop.
//
// Start answers 409 when the setpoint or period is unset.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	switch action {
	case actionStart:
		if !s.ctrl.Start() {
			writeConflict(w, "setpoint and period must be set before starting")
			return
		}
	case actionStop:
		s.ctrl.Stop()
	case actionReset:
		s.ctrl.Reset()
	default:
		writeNotFound(w, "unknown control action: "+action)
		return
	}

	s.logger.Info("control action via API", "action", action)
	writeJSON(w, http.StatusOK, paramsResponse{
		State:  s.ctrl.State(),
		Params: s.store.Snapshot(),
	})
}
