package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/SynthonScope/internal/application/reactivity"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ReactionHandler serves the reactive-site endpoints.
type ReactionHandler struct {
	service     reactivity.Service
	logger      logging.Logger
	maxBodySize int64
}

// NewReactionHandler creates a ReactionHandler.  maxBodySize <= 0 selects
// DefaultMaxBodySize.
func NewReactionHandler(service reactivity.Service, logger logging.Logger, maxBodySize int64) *ReactionHandler {
	return &ReactionHandler{
		service:     service,
		logger:      logging.OrNop(logger).Named("reaction_handler"),
		maxBodySize: maxBodySize,
	}
}

// RegisterRoutes mounts the handler under /reactions.
func (h *ReactionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reactions", func(rr chi.Router) {
		rr.Post("/analyze", h.Analyze)
		rr.Post("/classify", h.Classify)
		rr.Get("/analyses", h.ListAnalyses)
		rr.Get("/analyses/{analysisID}", h.GetAnalysis)
	})
}

// Analyze handles POST /api/v1/reactions/analyze.
func (h *ReactionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req reactivity.AnalyzeRequest
	if err := decodeAndValidate(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, r, err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = requestIDFrom(r)
	}

	result, err := h.service.Analyze(r.Context(), &req)
	if err != nil {
		h.logFailure("analyze", r, err)
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, result)
}

// Classify handles POST /api/v1/reactions/classify.
func (h *ReactionHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req reactivity.ClassifyRequest
	if err := decodeAndValidate(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, r, err)
		return
	}

	result, err := h.service.Classify(r.Context(), &req)
	if err != nil {
		h.logFailure("classify", r, err)
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, result)
}

// GetAnalysis handles GET /api/v1/reactions/analyses/{analysisID}.
func (h *ReactionHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "analysisID")
	result, err := h.service.GetAnalysis(r.Context(), id)
	if err != nil {
		h.logFailure("get analysis", r, err)
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, result)
}

// ListAnalyses handles GET /api/v1/reactions/analyses?limit=N.
func (h *ReactionHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if limit < 0 {
		writeAppError(w, r, errors.InvalidParam("limit must not be negative"))
		return
	}

	results, err := h.service.ListAnalyses(r.Context(), limit)
	if err != nil {
		h.logFailure("list analyses", r, err)
		writeAppError(w, r, err)
		return
	}
	if results == nil {
		results = []*reactivity.AnalysisResult{}
	}
	writeSuccess(w, r, http.StatusOK, results)
}

// logFailure logs server-side failures; client errors are left to the
// request logger.
func (h *ReactionHandler) logFailure(op string, r *http.Request, err error) {
	if errors.IsClientError(errors.GetCode(err)) {
		return
	}
	h.logger.Error(op+" failed",
		logging.String("request_id", requestIDFrom(r)),
		logging.Err(err))
}

//Personal.AI order the ending
