package httpadapter

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/config"
	"github.com/kirillkom/invoice-ledger/internal/core/domain"
	"github.com/kirillkom/invoice-ledger/internal/core/ports"
	"github.com/kirillkom/invoice-ledger/internal/observability/metrics"
)

const userIDHeader = "X-User-Id"

// maxSnapshotBytes bounds the body of a sheet apply request.
const maxSnapshotBytes = 10 << 20

type Router struct {
	cfg      config.Config
	ingest   ports.FileIngestor
	files    ports.InvoiceFileRepository
	invoices ports.InvoiceRepository
	sheet    ports.SheetService
	exporter ports.SheetExporter
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.FileIngestor,
	files ports.InvoiceFileRepository,
	invoices ports.InvoiceRepository,
	sheet ports.SheetService,
	exporter ports.SheetExporter,
) *Router {
	return &Router{
		cfg:      cfg,
		ingest:   ingest,
		files:    files,
		invoices: invoices,
		sheet:    sheet,
		exporter: exporter,
	}
}

// WithMetrics attaches the Prometheus registry; the /metrics endpoint and
// per-request observations stay disabled without it.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/files", rt.handleFiles)
	mux.HandleFunc("/v1/files/", rt.handleFileByID)
	mux.HandleFunc("/v1/invoices", rt.listInvoices)
	mux.HandleFunc("/v1/invoices/", rt.handleInvoiceByID)
	mux.HandleFunc("/v1/sheet", rt.handleSheet)
	mux.HandleFunc("/v1/sheet/export", rt.exportSheet)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIMaxInFlightWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fileResponse struct {
	domain.InvoiceFile
	Duplicate bool `json:"duplicate,omitempty"`
}

func (rt *Router) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadFile(w, r)
	case http.MethodGet:
		rt.listFiles(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := rt.requireUser(w, r)
	if !ok {
		rt.recordUpload("rejected")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rt.recordUpload("rejected")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	stored, duplicate, err := rt.ingest.Upload(
		r.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			rt.recordUpload("rejected")
		} else {
			rt.recordUpload("error")
		}
		writeError(w, err)
		return
	}

	if duplicate {
		rt.recordUpload("duplicate")
		writeJSON(w, http.StatusOK, fileResponse{InvoiceFile: *stored, Duplicate: true})
		return
	}
	rt.recordUpload("created")
	writeJSON(w, http.StatusAccepted, fileResponse{InvoiceFile: *stored})
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	files, err := rt.files.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []domain.InvoiceFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (rt *Router) handleFileByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	id, download := strings.CutSuffix(rest, "/download")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file id is required"})
		return
	}

	file, err := rt.files.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if file.UserID != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}

	if !download {
		writeJSON(w, http.StatusOK, file)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", attachmentDisposition(file.Title))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	invoices, err := rt.invoices.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (rt *Router) handleInvoiceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/invoices/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invoice id is required"})
		return
	}

	if err := rt.invoices.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleSheet(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.getSheet(w, r)
	case http.MethodPost:
		rt.applySheet(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getSheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	snapshot, err := rt.sheet.BuildSnapshot(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSheetBuild("api")
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, snapshot)
}

func (rt *Router) applySheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read request body"})
		return
	}
	if len(raw) > maxSnapshotBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "snapshot too large"})
		return
	}

	result, err := rt.sheet.ApplySnapshot(r.Context(), userID, string(raw))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSheetApply("api", result.RowsUpdated, result.RowsUnchanged, result.RowsSkipped, result.RowsRejected)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exportSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	workbook, err := rt.exporter.ExportXLSX(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport("api", "xlsx")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (rt *Router) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "header " + userIDHeader + " is required"})
		return "", false
	}
	return userID, true
}

func (rt *Router) recordUpload(outcome string) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload("api", outcome)
	}
}

// attachmentDisposition quotes the stored title so quotes or control bytes
// in it cannot break out of the header value.
func attachmentDisposition(title string) string {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": title})
	if disposition == "" {
		disposition = `attachment; filename="invoice"`
	}
	return disposition
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
