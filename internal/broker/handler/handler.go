// Package handler exposes the removal engine over HTTP for the serve command.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
	"databreaker/internal/broker/registryfeed"
	"databreaker/internal/broker/report"
	"databreaker/internal/broker/store"
	dErrors "databreaker/pkg/domain-errors"
	"databreaker/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/engine-mocks.go -package=mocks Engine

// Engine runs the three passes. *orchestrator.Orchestrator satisfies it.
type Engine interface {
	Scan(ctx context.Context, req orchestrator.ScanRequest) (*orchestrator.ScanResult, error)
	RequestDeletions(ctx context.Context, in orchestrator.DeletionRequestInput) (*orchestrator.DeletionResult, error)
	Reconcile(ctx context.Context, req orchestrator.ReconcileRequest) (*orchestrator.ReconcileResult, error)
}

type Handler struct {
	engine   Engine
	store    store.Store
	registry *connectors.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func New(engine Engine, st store.Store, registry *connectors.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:   engine,
		store:    st,
		registry: registry,
		logger:   logger.With(zap.String("component", "http")),
		now:      time.Now,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/brokers", h.handleListBrokers)
	r.Get("/brokers/{id}", h.handleGetBroker)
	r.Get("/records", h.handleListRecords)
	r.Get("/deletions", h.handleListDeletions)
	r.Get("/connectors", h.handleListConnectors)
	r.Get("/registry", h.handleRegistryInfo)
	r.Get("/report", h.handleReport)

	r.Post("/scan", h.handleScan)
	r.Post("/delete", h.handleDelete)
	r.Post("/reconcile", h.handleReconcile)
}

func (h *Handler) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BrokerFilter{
		Category:    strings.TrimSpace(q.Get("category")),
		Country:     strings.TrimSpace(q.Get("country")),
		DataCountry: strings.TrimSpace(q.Get("data_country")),
	}
	brokers, err := h.store.ListBrokers(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to list brokers", storageError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BrokerListResponse{Brokers: brokers, Total: len(brokers)})
}

func (h *Handler) handleGetBroker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.store.GetBroker(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBrokerNotFound, fmt.Sprintf("broker %s not found", id)))
		return
	}
	if err != nil {
		h.fail(w, r, "failed to load broker", storageError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.ListPersonalRecords(r.Context(), strings.TrimSpace(r.URL.Query().Get("broker")))
	if err != nil {
		h.fail(w, r, "failed to list records", storageError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RecordListResponse{Records: recs, Total: len(recs)})
}

// handleListDeletions reads stored rows without polling connectors.
func (h *Handler) handleListDeletions(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, err := h.store.ListDeletionRequests(r.Context(), strings.TrimSpace(r.URL.Query().Get("broker")))
	if err != nil {
		h.fail(w, r, "failed to list deletion requests", storageError(err))
		return
	}
	if status != "" {
		kept := rows[:0]
		for _, row := range rows {
			if row.Status == status {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	httputil.WriteJSON(w, http.StatusOK, DeletionListResponse{Requests: rows, Total: len(rows)})
}

func (h *Handler) handleListConnectors(w http.ResponseWriter, _ *http.Request) {
	all := h.registry.All()
	res := ConnectorListResponse{Connectors: make([]ConnectorResponse, 0, len(all))}
	for _, c := range all {
		res.Connectors = append(res.Connectors, toConnectorResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRegistryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := registryfeed.ReadInfo(r.Context(), h.store)
	if err != nil {
		h.fail(w, r, "failed to read registry info", storageError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegistryInfoResponse{LastFetchedAt: info.LastFetchedAt, Brokers: info.Brokers})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(report.FormatJSON)
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	rep, err := report.Build(r.Context(), h.store, h.now())
	if err != nil {
		h.fail(w, r, "failed to build report", storageError(err))
		return
	}

	switch f {
	case report.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case report.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if err := rep.Render(w, f); err != nil {
		h.logger.Error("failed to render report",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.engine.Scan(r.Context(), orchestrator.ScanRequest{
		Query:   req.Query,
		Brokers: req.Brokers,
		Country: req.Country,
	})
	if err != nil {
		h.fail(w, r, "scan failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScanResponse(result))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[DeleteRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.engine.RequestDeletions(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, "deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeletionResponse(result))
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ReconcileRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.engine.Reconcile(r.Context(), orchestrator.ReconcileRequest{
		BrokerID: req.BrokerID,
		Status:   models.DeletionStatus(req.Status),
	})
	if err != nil {
		h.fail(w, r, "reconciliation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReconcileResponse(result))
}

// fail logs err with the request id and writes the mapped error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	httputil.WriteError(w, err)
}

func storageError(err error) error {
	return dErrors.Wrap(err, dErrors.CodeStorageFailure, "storage unavailable")
}
