package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robertguss/steershaft-checklist/internal/domain"
)

type operatorRequest struct {
	Name string `json:"name"`
}

type workOrderRequest struct {
	WorkOrder string `json:"workOrder"`
}

type selectAllRequest struct {
	Checked bool `json:"checked"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// decode reads a JSON body into v, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) dispatch(w http.ResponseWriter, a domain.Action) {
	snap, err := s.controller.Dispatch(a)
	respondResult(w, snap, err)
}

// actionHandler serves actions that take no body
func (s *Server) actionHandler(a domain.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, a)
	}
}

func (s *Server) setOperatorHandler(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if decode(w, r, &req) {
		s.dispatch(w, domain.SetOperator{Operator: req.Name})
	}
}

func (s *Server) addWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if decode(w, r, &req) {
		s.dispatch(w, domain.AddWorkOrder{Raw: req.WorkOrder})
	}
}

func (s *Server) removeWorkOrderHandler(w http.ResponseWriter, r *http.Request) {
	wo, err := url.PathUnescape(chi.URLParam(r, "wo"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid work order")
		return
	}
	s.dispatch(w, domain.RemoveWorkOrder{WorkOrder: wo})
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if decode(w, r, &req) {
		s.dispatch(w, domain.ToggleWorkOrder{WorkOrder: req.WorkOrder})
	}
}

func (s *Server) selectAllHandler(w http.ResponseWriter, r *http.Request) {
	var req selectAllRequest
	if decode(w, r, &req) {
		s.dispatch(w, domain.SetSelectAll{Checked: req.Checked})
	}
}

func (s *Server) commentHandler(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if decode(w, r, &req) {
		s.dispatch(w, domain.SetComment{Comment: req.Comment})
	}
}

func (s *Server) reviewHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.controller.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"operator":   snap.Session.Operator,
		"workOrders": snap.Session.WorkOrders.List(),
		"steps":      snap.Summary,
	})
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	// A dropped connection does not abandon the submission
	snap, err := s.controller.Submit(context.WithoutCancel(r.Context()))
	respondResult(w, snap, err)
}

func (s *Server) stepsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"checklist": s.checklist(),
		"steps":     s.controller.Steps(),
	})
}
