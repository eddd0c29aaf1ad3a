package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-thermal/internal/params"
	"github.com/nerrad567/gray-logic-thermal/internal/pid"
)

// paramsResponse is the body of parameter and control responses.
type paramsResponse struct {
	State  pid.State       `json:"state"`
	Params params.Snapshot `json:"params"`
}

// handleGetParams returns the latest snapshot and the loop state.
func (s *Server) handleGetParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, paramsResponse{
		State:  s.ctrl.State(),
		Params: s.store.Snapshot(),
	})
}

// handlePatchParams applies a partial update as one publication.
//
// Body: params.Patch, e.g. {"setpoint": 225, "kp": 2, "period_s": 10}.
// Unknown fields are rejected.
func (s *Server) handlePatchParams(w http.ResponseWriter, r *http.Request) {
	var patch params.Patch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	snap, err := patch.Apply(s.store)
	if err != nil {
		if errors.Is(err, params.ErrInvalidPatch) {
			writeValidationError(w, err.Error())
			return
		}
		writeInternalError(w, "failed to apply parameters")
		return
	}

	s.logger.Info("parameters updated via API", "version", snap.Version)
	writeJSON(w, http.StatusOK, paramsResponse{
		State:  s.ctrl.State(),
		Params: snap,
	})
}
