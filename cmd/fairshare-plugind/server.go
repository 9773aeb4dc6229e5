// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/jontk/fairshare/pkg/analyticshistory"
	fairshareerrors "github.com/jontk/fairshare/pkg/errors"
	"github.com/jontk/fairshare/pkg/logging"
	"github.com/jontk/fairshare/pkg/metrics"

	"github.com/jontk/fairshare/internal/accumulator"
	"github.com/jontk/fairshare/internal/jobspec"
	"github.com/jontk/fairshare/internal/priority"
)

// server is the RPC front-end driving one priority.Model and one
// accumulator.Accumulator. Both are documented as not safe for concurrent
// use because the host runtime is assumed to serialize lifecycle calls per
// job; since HTTP handlers run concurrently, mu recreates that
// serialization at the transport boundary.
type server struct {
	mu      sync.Mutex
	model   *priority.Model
	accum   *accumulator.Accumulator
	logger  logging.Logger
	metrics metrics.Collector
	hub     *watchHub
}

func newServer(model *priority.Model, accum *accumulator.Accumulator, logger logging.Logger, collector metrics.Collector) *server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &server{model: model, accum: accum, logger: logger, metrics: collector, hub: newWatchHub()}
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/openapi.json", handleOpenAPISpec).Methods(http.MethodGet)
	r.HandleFunc("/v1/update", s.handleUpdate).Methods(http.MethodPost)
	r.HandleFunc("/v1/reprioritize", s.handleReprioritize).Methods(http.MethodPost)
	r.HandleFunc("/v1/clear", s.handleClear).Methods(http.MethodPost)
	r.HandleFunc("/v1/query", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/v1/watch", s.hub.handleWatch)
	r.HandleFunc("/v1/jobs/{id}/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/v1/jobs/{id}/new", s.handleNew).Methods(http.MethodPost)
	r.HandleFunc("/v1/jobs/{id}/depend", s.handleDepend).Methods(http.MethodPost)
	r.HandleFunc("/v1/jobs/{id}/priority", s.handlePriority).Methods(http.MethodPost)
	r.HandleFunc("/v1/jobs/{id}/run", s.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/v1/jobs/{id}/inactive", s.handleInactive).Methods(http.MethodPost)
	r.HandleFunc("/v1/associations/{user}/{bank}/history", s.handleHistory).Methods(http.MethodPost)
	return r
}

func (s *server) usageOf(userID, bank string) float64 {
	return s.accum.CurrentUsage(accumulator.AssociationKey{UserID: userID, Bank: bank})
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := readBody(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := validateUpdateBody(body); err != nil {
		schemaErr := fairshareerrors.NewValidationError(fairshareerrors.ErrorCodeValidationFailed, "update payload failed schema validation", "", nil)
		writeError(w, s.logger, schemaErr.FairshareError)
		s.metrics.RecordRPCError("update", schemaErr.FairshareError)
		return
	}

	var req updateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.model.Update(toUpdateData(req)); err != nil {
		writeError(w, s.logger, err)
		s.metrics.RecordRPCError("update", err)
		return
	}
	s.metrics.RecordRPC("update", time.Since(start))
	s.hub.broadcast(watchEvent{Type: "update"})
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleReprioritize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.model.Reprioritize()
	if err != nil {
		writeError(w, s.logger, err)
		s.metrics.RecordRPCError("reprioritize", err)
		return
	}
	s.metrics.RecordRPC("reprioritize", time.Since(start))
	s.hub.broadcast(watchEvent{Type: "reprioritize", Priorities: out})
	writeJSON(w, out)
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accum.Clear()
	s.metrics.RecordRPC("clear", time.Since(start))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.RecordRPC("query", time.Since(start))
	writeJSON(w, toQuerySnapshot(s.model.Query()))
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req jobValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	err := s.model.Validate(req.UserID, req.Bank, req.Queue, req.Project)
	s.mu.Unlock()

	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleNew(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	var req jobNewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accum.New(jobID)
	if err := s.model.New(req.UserID, req.Bank, jobID, req.Queue); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDepend(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	var req jobDependRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	resources, err := jobspec.CountResources(jobspec.ResourceCounts{Nnodes: req.Nnodes, Nslots: req.Nslots, SlotSize: req.SlotSize})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.model.Depend(req.UserID, req.Bank, jobID, resources.Nnodes, resources.Ncores, resources.Nslots, s.usageOf); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePriority(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	var req jobPriorityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.model.Priority(req.UserID, req.Bank, jobID, req.Fairshare)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, priorityResponse{JobID: jobID, Priority: p})
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	var req jobRunRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.model.Run(req.UserID, req.Bank, jobID, req.TRun); err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := accumulator.AssociationKey{UserID: req.UserID, Bank: req.Bank}
	if err := s.accum.Run(key, jobID, req.TRun); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleInactive(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	var req jobInactiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.model.Inactive(req.UserID, req.Bank, jobID, s.usageOf); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.hub.broadcast(watchEvent{Type: "inactive", JobID: jobID})
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory builds a fairshare-over-time summary from caller-supplied
// samples. The daemon itself is stateless across update cycles, so the
// caller (whichever component persists each cycle's walk results) submits
// the samples it recorded; this endpoint only does the statistics/trend/
// anomaly computation.
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req historyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	tracker := analyticshistory.NewTracker()
	history, err := tracker.Build(vars["user"], vars["bank"], req.toSamples(), req.toOptions())
	if err != nil {
		writeError(w, s.logger, fairshareerrors.NewValidationError(fairshareerrors.ErrorCodeValidationFailed, err.Error(), "", nil).FairshareError)
		return
	}
	writeJSON(w, toHistoryResponse(history))
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// categoryOf extracts the FairshareError category from err by a type switch
// over the error types the handlers return directly; wrapped errors are not
// unwrapped.
func categoryOf(err error) (fairshareerrors.ErrorCategory, bool) {
	switch e := err.(type) {
	case *fairshareerrors.ValidationError:
		return e.Category, true
	case *fairshareerrors.PolicyRejectionError:
		return e.Category, true
	case *fairshareerrors.FairshareError:
		return e.Category, true
	default:
		return "", false
	}
}

func writeError(w http.ResponseWriter, logger logging.Logger, err error) {
	status := http.StatusInternalServerError
	if category, ok := categoryOf(err); ok {
		switch category {
		case fairshareerrors.CategoryPolicy:
			status = http.StatusForbidden
		case fairshareerrors.CategoryValidation:
			status = http.StatusBadRequest
		case fairshareerrors.CategoryInvariant:
			status = http.StatusConflict
		case fairshareerrors.CategoryStore:
			status = http.StatusServiceUnavailable
		}
	}
	logging.LogError(logger, err, "rpc request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
