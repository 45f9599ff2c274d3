package http

import (
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sllynn/airport-stand-allocation/internal/application/service"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/snapshotfile"
	"go.uber.org/zap"
)

type handler struct {
	log          *zap.Logger
	service      *service.AllocationService
	maxBodyBytes int64
}

// Register mounts the allocation API on r.
func Register(r chi.Router, log *zap.Logger, allocationService *service.AllocationService, maxBodyBytes int64) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{
		log:          log,
		service:      allocationService,
		maxBodyBytes: maxBodyBytes,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/allocations", h.allocate)
		r.Get("/allocations/{runID}", h.getAllocation)
		r.Post("/snapshots/{snapshotID}/allocations", h.allocateSnapshot)
	})
}

func (h *handler) allocate(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	doc, err := snapshotfile.Decode(r.Body, bodyFormat(r))
	if err != nil {
		h.log.Warn("invalid allocation request body", zap.Error(err))
		writeError(w, mapHTTPStatus(err), mapErrorMessage(err))
		return
	}
	snap, err := doc.ToSnapshot()
	if err != nil {
		writeError(w, mapHTTPStatus(err), mapErrorMessage(err))
		return
	}

	result, err := h.service.Allocate(r.Context(), snap)
	if err != nil {
		writeError(w, mapHTTPStatus(err), mapErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, toAllocationResponse(result))
}

func (h *handler) allocateSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := strings.TrimSpace(chi.URLParam(r, "snapshotID"))
	if snapshotID == "" {
		writeError(w, http.StatusBadRequest, "snapshot id is required")
		return
	}

	result, err := h.service.AllocateSnapshot(r.Context(), snapshotID)
	if err != nil {
		writeError(w, mapHTTPStatus(err), mapErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, toAllocationResponse(result))
}

func (h *handler) getAllocation(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	result, err := h.service.GetResult(r.Context(), runID)
	if err != nil {
		writeError(w, mapHTTPStatus(err), mapErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, toAllocationResponse(result))
}

func bodyFormat(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "json"
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	default:
		return "json"
	}
}
