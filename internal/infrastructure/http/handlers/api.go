// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/infrastructure/http/middleware"
	"github.com/harvestchef/harvest/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ingredient", validateIngredient)

	return v
}

// validateIngredient rejects blank names and markup.
func validateIngredient(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" || len(name) > 200 {
		return false
	}
	return !strings.ContainsAny(name, "<>")
}

// responder writes JSON envelopes. Every handler group embeds one.
type responder struct {
	logger *zap.Logger
}

// writeJSON writes a JSON response
func (h responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeOK writes the success envelope: {"success": true, ...fields}.
func (h responder) writeOK(w http.ResponseWriter, fields map[string]interface{}) {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	h.writeJSON(w, http.StatusOK, body)
}

// writeError renders err as an AppError envelope.
func (h responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "Unexpected error")

	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Debug("Request rejected", fields...)
	}

	h.writeJSON(w, appErr.StatusCode(), errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewBadRequestError(fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		}
		return errors.NewBadRequestError("Invalid JSON payload")
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "min":
			msg = fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "startswith":
			msg = fmt.Sprintf("%s must start with %q", field, fe.Param())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "ingredient":
			msg = "Invalid ingredient name"
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
		out = append(out, errors.ValidationError{Field: field, Tag: fe.Tag(), Message: msg})
	}
	return errors.NewValidationErrors(out)
}

// visitor returns the session visitor ID set by middleware.Visitor.
func visitor(r *http.Request) (string, error) {
	id, ok := middleware.VisitorIDFromContext(r.Context())
	if !ok {
		return "", errors.NewBadRequestError("visitor session is required")
	}
	return id, nil
}
