package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowcraft/dagrunner/pkg/graph"
	"github.com/flowcraft/dagrunner/pkg/jsonformat"
)

// HandleListWorkflows returns every saved workflow's summary (id, name,
// description, timestamps) — not part of spec.md §6's wire contract, so it
// is plain JSON rather than a jsonformat shape.
func (s *Service) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

// HandleSaveWorkflow accepts the canonical §6 Workflow JSON, validates it
// (required fields, connection endpoints resolve, no cycles), and stores
// the raw document. The storage key returned is assigned by the store, not
// necessarily the workflow's own "id" field — the two are deliberately
// decoupled so the same workflow document can be saved under several
// storage keys (drafts/copies) without mutating its embedded identity.
func (s *Service) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorJSON(w, "INVALID_BODY", "failed to read request body", http.StatusBadRequest)
		return
	}

	wf, err := jsonformat.ParseWorkflow(body)
	if err != nil {
		s.logger.WithError(err).Warn("rejected invalid workflow definition")
		writeErrorJSON(w, "INVALID_WORKFLOW", err.Error(), http.StatusBadRequest)
		return
	}
	if errs := graph.New(wf.NodeIDs(), wf.GraphConnections()).Validate(); len(errs) > 0 {
		s.logger.WithField("errors", fmt.Sprint(errs)).Warn("rejected invalid workflow definition")
		writeErrorJSON(w, "INVALID_WORKFLOW", fmt.Sprintf("invalid workflow graph: %v", errs), http.StatusBadRequest)
		return
	}

	storageID, err := s.store.Save(wf.Name, wf.Description, body)
	if err != nil {
		s.logger.WithError(err).Error("failed to save workflow")
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.WithField("storageId", storageID).WithField("workflowId", wf.ID).WithField("requestId", rid).Debug("workflow saved")
	writeJSON(w, http.StatusCreated, map[string]string{"id": storageID, "workflowId": wf.ID})
}

// HandleGetWorkflow returns the raw workflow document previously saved
// under the storage id in the URL.
func (s *Service) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	stored, err := s.store.Load(id)
	if err != nil {
		writeErrorJSON(w, "NOT_FOUND", "workflow not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stored.Data)
}

// HandleDeleteWorkflow removes a saved workflow document by storage id.
func (s *Service) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Delete(id); err != nil {
		writeErrorJSON(w, "NOT_FOUND", "workflow not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExecuteWorkflow loads the workflow behind the storage id, decodes
// the request body as the initial Context per §3, and runs it through the
// Runner to completion (or to its first fatal failure, per §4.2). A run
// that completes the executor's state machine — whether the final status
// is completed or failed — is a 200 carrying the serialized Execution; only
// a malformed request or an unknown workflow id is a non-2xx response,
// mirroring albert-saclot's "execution outcomes are business-level, not
// transport-level" convention.
func (s *Service) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	id := mux.Vars(r)["id"]

	stored, err := s.store.Load(id)
	if err != nil {
		writeErrorJSON(w, "NOT_FOUND", "workflow not found", http.StatusNotFound)
		return
	}

	wf, err := jsonformat.ParseWorkflow(stored.Data)
	if err != nil {
		s.logger.WithError(err).Error("stored workflow failed to parse")
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	var initialContext map[string]any
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&initialContext); err != nil {
			writeErrorJSON(w, "INVALID_BODY", "invalid request body", http.StatusBadRequest)
			return
		}
	}

	exec, runErr := s.runner.Execute(r.Context(), wf, initialContext)
	if exec == nil {
		// Workflow/graph construction failed before an Execution record
		// could even be created (§7 ValidationError at load).
		s.logger.WithError(runErr).Warn("workflow rejected before execution")
		writeErrorJSON(w, "INVALID_WORKFLOW", runErr.Error(), http.StatusBadRequest)
		return
	}
	if runErr != nil {
		s.logger.WithField("id", id).WithField("workflowId", wf.ID).WithField("requestId", rid).WithError(runErr).Warn("workflow execution failed")
	}

	payload, err := jsonformat.SerializeExecution(exec)
	if err != nil {
		s.logger.WithError(err).Error("failed to serialize execution")
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HandleWorkflowHistory returns the up-to-100 most recent executions for a
// workflow id, newest first, per §4.5's appendHistory/listHistory contract.
func (s *Service) HandleWorkflowHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	history, err := s.states.ListHistory(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to list workflow history")
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	entries := make([]json.RawMessage, 0, len(history))
	for _, exec := range history {
		blob, err := jsonformat.SerializeExecution(exec)
		if err != nil {
			s.logger.WithError(err).Error("failed to serialize history entry")
			continue
		}
		entries = append(entries, blob)
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetExecution returns the current observed state of one execution,
// per §6's Execution JSON shape.
func (s *Service) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	exec, err := s.states.GetExecution(r.Context(), id)
	if err != nil {
		writeErrorJSON(w, "NOT_FOUND", "execution not found", http.StatusNotFound)
		return
	}
	payload, err := jsonformat.SerializeExecution(exec)
	if err != nil {
		s.logger.WithError(err).Error("failed to serialize execution")
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HandleCancelExecution requests cancellation per §4.5/§9: a running
// execution observed by the StateStore transitions to failed("cancelled").
// It does not interrupt an in-flight Execute call directly — the Runner
// observes it cooperatively between levels. The only failure mode of a
// cancel request is an unknown execution id, so any error is reported as
// 404 rather than 500.
func (s *Service) HandleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.runner.Cancel(r.Context(), id); err != nil {
		writeErrorJSON(w, "NOT_FOUND", "execution not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a structured JSON error response with a
// machine-readable code, grounded on albert-saclot's workflow.Service
// convention of the same name.
func writeErrorJSON(w http.ResponseWriter, errCode, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": errCode, "message": message})
}
