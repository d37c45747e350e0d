// Package errors carries failures across the HTTP boundary. Handlers only
// ever write an AppError; anything else is wrapped as INTERNAL_ERROR first.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is the stable machine-readable code sent to clients.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	CodeIngredientNotFound    ErrorCode = "INGREDIENT_NOT_FOUND"
	CodeNoAcceptedIngredients ErrorCode = "NO_ACCEPTED_INGREDIENTS"
	CodeProductNotFound       ErrorCode = "PRODUCT_NOT_FOUND"
	CodeStaleRequest          ErrorCode = "STALE_REQUEST"
)

// httpStatus maps codes to responses. Unlisted codes are 500.
var httpStatus = map[ErrorCode]int{
	CodeBadRequest:            http.StatusBadRequest,
	CodeValidationFailed:      http.StatusBadRequest,
	CodeNoAcceptedIngredients: http.StatusBadRequest,
	CodeNotFound:              http.StatusNotFound,
	CodeIngredientNotFound:    http.StatusNotFound,
	CodeProductNotFound:       http.StatusNotFound,
	CodeStaleRequest:          http.StatusConflict,
	CodeTooManyRequests:       http.StatusTooManyRequests,
	CodeExternalServiceError:  http.StatusBadGateway,
}

// AppError is a failure with a code, a human message and optional context.
type AppError struct {
	Code     ErrorCode      `json:"code"`
	Message  string         `json:"message"`
	Details  string         `json:"details,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Cause    error          `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// StatusCode is the HTTP status the error is served with.
func (e *AppError) StatusCode() int {
	if status, ok := httpStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithMetadata sets key on the error and returns it.
func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError names the missing resource, e.g. "Favorite not found".
func NewNotFoundError(resource string) *AppError {
	if resource == "" {
		resource = "Resource"
	}
	return NewAppError(CodeNotFound, resource+" not found", "")
}

func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(CodeDatabaseError, "Database operation failed", "Failed to "+operation).
		WithCause(cause)
}

// NewExternalServiceError reports a failed call to the model or the catalog.
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(CodeExternalServiceError, "External service error",
		"Failed to communicate with "+service).WithCause(cause)
}

func NewIngredientNotFoundError(id string) *AppError {
	return NewAppError(CodeIngredientNotFound, "Ingredient not found",
		fmt.Sprintf("Ingredient with ID %s does not exist", id)).
		WithMetadata("ingredient_id", id)
}

// NewNoAcceptedIngredientsError rejects a suggestion request for a
// workspace where nothing is accepted.
func NewNoAcceptedIngredientsError() *AppError {
	return NewAppError(CodeNoAcceptedIngredients, "No ingredients selected",
		"Accept at least one ingredient before asking for recipes")
}

func NewProductNotFoundError(barcode string) *AppError {
	return NewAppError(CodeProductNotFound, "Product not found",
		"No catalog product with barcode "+barcode).
		WithMetadata("barcode", barcode)
}

// NewStaleRequestError marks a result superseded by a newer action in slot.
func NewStaleRequestError(slot string) *AppError {
	return NewAppError(CodeStaleRequest, "Request superseded",
		fmt.Sprintf("A newer %s request was started", slot)).
		WithMetadata("slot", slot)
}

// NewTooManyRequestsError carries the wait in whole seconds.
func NewTooManyRequestsError(retryAfter time.Duration) *AppError {
	secs := int(retryAfter.Seconds())
	return NewAppError(CodeTooManyRequests, "Too many requests",
		fmt.Sprintf("Try again in %d seconds", secs)).
		WithMetadata("retry_after", secs)
}

// Wrap returns the AppError inside err, or an internal error caused by err.
// A nil err stays nil.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// Is reports whether err carries an AppError with code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode returns err's code, or INTERNAL_ERROR for foreign errors.
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// ValidationError is one failed field rule.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v))
	for i, fe := range v {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// NewValidationErrors folds field failures into one VALIDATION_FAILED error.
func NewValidationErrors(fields []ValidationError) *AppError {
	errs := ValidationErrors(fields)
	return NewValidationError(errs.Error()).WithMetadata("validation_errors", errs)
}

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
