// Package api exposes the pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
	"etlapi/internal/middleware"
	"etlapi/internal/service"
)

// Fixed response messages.
const (
	RunningMessage   = "ETL API is running!"
	PreflightMessage = "Preflight request allowed"
	SuccessMessage   = "ETL process completed successfully!"
)

// MessageResponse is the body of the preflight reply.
type MessageResponse struct {
	Message string `json:"message"`
}

// RunResponse is the body of a successful POST /etl.
type RunResponse struct {
	Message string      `json:"message"`
	Run     *etl.RunLog `json:"run"`
}

// Handler implements the HTTP endpoints on top of an ETLService.
type Handler struct {
	etl        *service.ETLService
	logger     *slog.Logger
	bodySchema *openapi3.Schema
	openapi    []byte
}

// NewHandler creates a Handler. version is reported in the OpenAPI document.
func NewHandler(etlSvc *service.ETLService, logger *slog.Logger, version string) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := json.Marshal(NewOpenAPI(version))
	if err != nil {
		return nil, fmt.Errorf("marshal openapi document: %w", err)
	}
	return &Handler{
		etl:        etlSvc,
		logger:     logger,
		bodySchema: jobRequestSchema(),
		openapi:    doc,
	}, nil
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, RunningMessage)
}

// Preflight handles OPTIONS /etl. CORS headers are added by the cors
// middleware, which passes the request through to here.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: PreflightMessage})
}

// RunETL handles POST /etl.
func (h *Handler) RunETL(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeJobRequest(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	runLog, err := h.etl.Run(r.Context(), req, middleware.RequestIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Message: SuccessMessage, Run: runLog})
}

// ListSources handles GET /etl/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.etl.ListSources())
}

// Preview handles GET /etl/preview?source=&limit=.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("source")
	if source == "" {
		writeError(w, r, h.logger, errInvalidRequest("query parameter source is required"))
		return
	}

	limit := service.DefaultPreviewLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, h.logger, errInvalidRequest("query parameter limit must be a positive integer"))
			return
		}
		limit = n
	}

	res, err := h.etl.Preview(r.Context(), source, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRuns handles GET /etl/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.etl.ListRuns())
}

// OpenAPI handles GET /openapi.json.
func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapi)
}

// decodeJobRequest reads the body and checks it against the request schema
// before binding it.
func (h *Handler) decodeJobRequest(r *http.Request) (domain.JobRequest, error) {
	var req domain.JobRequest

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return req, errInvalidRequest("read request body: " + err.Error())
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return req, errInvalidRequest("request body is required")
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return req, errInvalidRequest("malformed JSON body")
	}
	if err := h.bodySchema.VisitJSON(raw); err != nil {
		return req, errInvalidRequest(schemaMessage(err))
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errInvalidRequest("malformed JSON body")
	}
	return req, nil
}

func schemaMessage(err error) string {
	var serr *openapi3.SchemaError
	if !errors.As(err, &serr) {
		return "invalid job request"
	}
	if ptr := serr.JSONPointer(); len(ptr) > 0 {
		return fmt.Sprintf("invalid job request: %s: %s", strings.Join(ptr, "."), serr.Reason)
	}
	return "invalid job request: " + serr.Reason
}
