package middleware

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apierrors "github.com/MMucahit/borsa/internal/errors"
)

// Validator validates decoded requests using struct tags and guards request
// bodies before handlers read them
type Validator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidator creates a validator whose error messages use form or json field names
func NewValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	v := validator.New()
	v.RegisterValidation("decimal", isDecimal)
	v.RegisterValidation("nonneg_decimal", isNonNegativeDecimal)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation")),
		errorHandler: errorHandler,
	}
}

// ValidateStruct validates a struct and returns an API validation error
func (m *Validator) ValidateStruct(v any) error {
	if err := m.validator.Struct(v); err != nil {
		return apierrors.FromValidator(err)
	}
	return nil
}

// LimitBody rejects declared oversize bodies up front and caps the rest
// with http.MaxBytesReader
func (m *Validator) LimitBody(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 {
				if r.ContentLength > maxBytes {
					m.logger.WarnContext(r.Context(), "request body too large",
						slog.Int64("size", r.ContentLength),
						slog.Int64("max_size", maxBytes),
					)
					m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
						http.StatusRequestEntityTooLarge,
						apierrors.CodePayloadTooLarge,
						"Upload exceeds the maximum allowed size",
						map[string]any{"max_size": maxBytes, "size": r.ContentLength},
					))
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireContentType ensures requests with a body use one of the allowed content types
func (m *Validator) RequireContentType(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if contentType != "" && strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedMedia,
				"Unsupported content type",
				map[string]any{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// isDecimal accepts empty strings and anything decimal can parse
func isDecimal(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

func isNonNegativeDecimal(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}
