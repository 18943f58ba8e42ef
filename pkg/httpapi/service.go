package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flowcraft/dagrunner/pkg/execution"
	"github.com/flowcraft/dagrunner/pkg/logging"
	"github.com/flowcraft/dagrunner/pkg/runner"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// maxRequestBody limits workflow-definition uploads, mirroring the
// teacher's 1MB execute-request cap.
const maxRequestBody = 1 << 20

// Service exposes a Runner over HTTP. It depends on execution.DefinitionStore
// and execution.StateStore interfaces rather than concrete backends, so a
// caller can wire execution.NewMemoryDefinitionStore + pkg/pgstore.Store or
// any other pair satisfying the same contracts.
type Service struct {
	runner *runner.Runner
	store  execution.DefinitionStore
	states execution.StateStore
	logger *logging.Logger
}

// NewService wires a Service. store holds workflow definitions; states is
// the same StateStore the Runner persists executions through, consulted
// directly for read endpoints so the Service never re-derives Runner state.
func NewService(r *runner.Runner, store execution.DefinitionStore, states execution.StateStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	return &Service{
		runner: r,
		store:  store,
		states: states,
		logger: logger,
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func reqID(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LoadRoutes mounts every workflow/execution handler under parentRouter.
// Liveness/readiness probes are the embedding binary's concern (cmd/dagrunner
// mounts /metrics the same way) rather than this package's.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	wfRouter := parentRouter.PathPrefix("/workflows").Subrouter()
	wfRouter.Use(requestIDMiddleware)
	wfRouter.Use(jsonMiddleware)
	wfRouter.HandleFunc("", s.HandleListWorkflows).Methods(http.MethodGet)
	wfRouter.HandleFunc("", s.HandleSaveWorkflow).Methods(http.MethodPost)
	wfRouter.HandleFunc("/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	wfRouter.HandleFunc("/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)
	wfRouter.HandleFunc("/{id}/execute", s.HandleExecuteWorkflow).Methods(http.MethodPost)
	wfRouter.HandleFunc("/{id}/history", s.HandleWorkflowHistory).Methods(http.MethodGet)

	execRouter := parentRouter.PathPrefix("/executions").Subrouter()
	execRouter.Use(requestIDMiddleware)
	execRouter.Use(jsonMiddleware)
	execRouter.HandleFunc("/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	execRouter.HandleFunc("/{id}/cancel", s.HandleCancelExecution).Methods(http.MethodPost)
}
