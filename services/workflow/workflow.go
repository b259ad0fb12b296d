package workflow

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const maxRequestBytes = 1 << 20

// HandleExecuteWorkflow runs the submitted workflow and returns its report.
// Node failures are reported with 200; only malformed requests are rejected.
func (s *Service) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	logger := log.With().Str("workflow", req.Workflow.Name).Logger()
	if identity, ok := IdentityFromContext(r.Context()); ok {
		logger = logger.With().Str("user_id", identity.UserID).Logger()
	}
	logger.Debug().Int("nodes", len(req.Workflow.Nodes)).Msg("Executing workflow")

	report, err := s.engine.Run(r.Context(), &req.Workflow, req.Parameters)
	if err != nil {
		if IsConfigError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Workflow execution failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

// HandleListNodeTypes returns every registered node type with its parameters.
func (s *Service) HandleListNodeTypes(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"nodeTypes": s.engine.Registry().List()})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
