package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/internal/exporter"
	"github.com/MMucahit/borsa/internal/middleware"
	"github.com/MMucahit/borsa/internal/services"
	api "github.com/MMucahit/borsa/pkg/contracts/api/v1"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// defaultMultipartMemory is kept in memory before multipart parts spill to disk
const defaultMultipartMemory = 32 << 20

// ReconcileHandler handles upload, run inspection and export requests
type ReconcileHandler struct {
	service      RunServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	defaults     domain.RunOptions
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(
	service RunServiceInterface,
	validator *middleware.Validator,
	errorHandler *apierrors.ErrorHandler,
	defaults domain.RunOptions,
	logger *slog.Logger,
) *ReconcileHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	if validator == nil {
		validator = middleware.NewValidator(logger, errorHandler)
	}
	return &ReconcileHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		defaults:     defaults,
		tracer:       otel.Tracer("reconcile-handler"),
		logger:       logger.With(slog.String("handler", "reconcile")),
	}
}

// Routes mounts the reconcile endpoints; the caller mounts it under /api
func (h *ReconcileHandler) Routes(maxUploadBytes int64) chi.Router {
	r := chi.NewRouter()

	r.With(
		h.validator.LimitBody(maxUploadBytes),
		h.validator.RequireContentType("multipart/form-data"),
	).Post("/reconcile", h.Reconcile)

	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/rows", h.GetRows)
		r.Get("/summary", h.GetSummary)
		r.Get("/volume", h.GetVolume)
		r.Get("/export/{table}.{format}", h.Export)
	})
	return r
}

// Reconcile handles POST /api/reconcile
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "reconcile_handler.reconcile",
		trace.WithAttributes(
			attribute.String("http.route", "/api/reconcile"),
			attribute.String("request_id", middleware.GetReqID(r.Context())),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil {
		span.RecordError(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := decodeReconcileForm(r.MultipartForm)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		span.SetAttributes(attribute.String("error.type", "request_validation"))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	input := services.ReconcileInput{Options: req.Options(h.defaults)}
	for _, part := range []struct {
		field string
		dst   *[]services.Upload
	}{
		{"takas", &input.Takas},
		{"akd", &input.AKD},
		{"hacim", &input.Hacim},
	} {
		uploads, err := readUploads(r.MultipartForm.File[part.field])
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		*part.dst = uploads
	}

	span.SetAttributes(
		attribute.String("reconcile.source_mode", string(input.Options.SourceMode)),
		attribute.String("reconcile.alignment", string(input.Options.Alignment)),
		attribute.Int("reconcile.takas_uploads", len(input.Takas)),
		attribute.Int("reconcile.akd_uploads", len(input.AKD)),
		attribute.Int("reconcile.hacim_uploads", len(input.Hacim)),
	)

	result, err := h.service.Reconcile(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile failed")
		h.errorHandler.HandleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("run.id", result.RunID))
	h.logger.InfoContext(ctx, "Reconcile request completed",
		slog.String("run_id", result.RunID),
		slog.Int("rows", len(result.Rows)),
		slog.Int("skipped", len(result.Skipped)))

	w.Header().Set("Location", "/api/runs/"+result.RunID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.runResponse(result))
}

// GetRun handles GET /api/runs/{id}
func (h *ReconcileHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.runResponse(result))
}

// GetRows handles GET /api/runs/{id}/rows?page=&page_size=
func (h *ReconcileHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	page, err := decodePagination(r)
	if err == nil {
		err = h.validator.ValidateStruct(page)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Rows(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetSummary handles GET /api/runs/{id}/summary?threshold=
func (h *ReconcileHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	query := api.SummaryQuery{Threshold: r.URL.Query().Get("threshold")}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var threshold *decimal.Decimal
	if query.Threshold != "" {
		t, err := decimal.NewFromString(query.Threshold)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("threshold", err.Error()))
			return
		}
		threshold = &t
	}

	resp, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"), threshold)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetVolume handles GET /api/runs/{id}/volume
func (h *ReconcileHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Volume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// Export handles GET /api/runs/{id}/export/{table}.{format}
func (h *ReconcileHandler) Export(w http.ResponseWriter, r *http.Request) {
	table, err := exporter.ParseTableName(chi.URLParam(r, "table"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError("table "+chi.URLParam(r, "table")))
		return
	}
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError("format "+chi.URLParam(r, "format")))
		return
	}

	// Buffered so a failed export still gets a problem response.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), chi.URLParam(r, "id"), table, format, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := exportFileName(table, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "Export write interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}

func (h *ReconcileHandler) runResponse(result *domain.Result) api.RunResponse {
	resp := api.NewRunResponse(result)
	if expires, ok := h.service.ExpiresAt(result.RunID); ok {
		resp.ExpiresAt = &expires
	}
	return resp
}

func exportFileName(table exporter.TableName, format exporter.Format) string {
	sheet := exporter.SheetDetail
	switch table {
	case exporter.TableSummary:
		sheet = exporter.SheetSummary
	case exporter.TableVolume:
		sheet = exporter.SheetVolume
	}
	return sheet + "." + string(format)
}

// decodeReconcileForm maps the multipart values onto the request struct.
// Integer fields that do not parse are reported as validation errors.
func decodeReconcileForm(form *multipart.Form) (api.ReconcileRequest, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	req := api.ReconcileRequest{
		SourceMode:    value("source_mode"),
		Alignment:     value("alignment"),
		RequireVolume: value("require_volume"),
		TakasFiles:    len(form.File["takas"]),
		AKDFiles:      len(form.File["akd"]),
		HacimFiles:    len(form.File["hacim"]),
	}

	var err error
	if req.Year, err = parseOptionalInt(value("year")); err != nil {
		return req, apierrors.ErrValidation("year", "year must be an integer")
	}
	if req.Month, err = parseOptionalInt(value("month")); err != nil {
		return req, apierrors.ErrValidation("month", "month must be an integer")
	}
	return req, nil
}

func decodePagination(r *http.Request) (api.PaginationRequest, error) {
	var (
		page api.PaginationRequest
		err  error
	)
	q := r.URL.Query()
	if page.Page, err = parseOptionalInt(q.Get("page")); err != nil {
		return page, apierrors.ErrValidation("page", "page must be an integer")
	}
	if page.PageSize, err = parseOptionalInt(q.Get("page_size")); err != nil {
		return page, apierrors.ErrValidation("page_size", "page_size must be an integer")
	}
	return page, nil
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func readUploads(headers []*multipart.FileHeader) ([]services.Upload, error) {
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, services.Upload{Name: fh.Filename, Payload: payload})
	}
	return uploads, nil
}
