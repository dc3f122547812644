package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory decides the HTTP status and log level of an AppError.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryPayload       ErrorCategory = "payload"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError carries an errbuilder error plus the category and status the
// HTTP layer reports.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// ErrorResponse is the JSON body written for a failed request.
type ErrorResponse struct {
	Error      string        `json:"error"`
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Response renders e for the client.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{
		Error:      e.ErrBuilder.Msg,
		Category:   e.Category,
		HTTPStatus: e.HTTPStatus,
		RequestID:  e.RequestID,
		StackTrace: e.StackTrace,
	}
}

// NewAppError wraps builder with a category and status.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
	}
}

func withDetails(builder *errbuilder.ErrBuilder, details map[string]string) *errbuilder.ErrBuilder {
	if len(details) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for key, value := range details {
		errorMap.Set(key, errors.New(value))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

// NewValidationError reports a request that decoded fine but holds values
// outside the accepted domain. details maps field names to problems.
func NewValidationError(message string, details map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return NewAppError(withDetails(builder, details), CategoryValidation, http.StatusBadRequest)
}

// NewPayloadError reports a body that could not be decoded or failed its schema.
func NewPayloadError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryPayload, http.StatusBadRequest)
}

// NewSchemaError lists every schema violation of an ingested document.
func NewSchemaError(violations []string) *AppError {
	details := make(map[string]string, len(violations))
	for i, v := range violations {
		details[fmt.Sprintf("violation_%d", i)] = v
	}
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Payload does not match the evaluation schema")

	return NewAppError(withDetails(builder, details), CategoryPayload, http.StatusUnprocessableEntity)
}

// NewPayloadTooLargeError is returned when a body exceeds the configured limit.
func NewPayloadTooLargeError(limit int64) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Request body too large")

	builder = withDetails(builder, map[string]string{"limit_bytes": fmt.Sprint(limit)})
	return NewAppError(builder, CategoryPayload, http.StatusRequestEntityTooLarge)
}

// NewUnsupportedMediaTypeError rejects a body in a format the service does not read.
func NewUnsupportedMediaTypeError(contentType string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Content-Type must be application/json")

	builder = withDetails(builder, map[string]string{"content_type": contentType})
	return NewAppError(builder, CategoryPayload, http.StatusUnsupportedMediaType)
}

// NewRateLimitError tells the client when to retry.
func NewRateLimitError(retryAfter string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")

	builder = withDetails(builder, map[string]string{"retry_after": retryAfter})
	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewTimeoutError reports a request that ran past its deadline.
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewInternalError hides message from the client but keeps it in details.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")

	builder = withDetails(builder, map[string]string{"internal_details": message})
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() == gin.DebugMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError reports an unusable configuration value or file.
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// WrapError adds context to err, keeping it unwrappable.
func WrapError(err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}

// ErrorHandler renders the last error attached to the gin context.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		if appErr.RequestID == "" {
			appErr.RequestID = c.GetString(RequestIDKey)
		}
		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
	}
}

// RecoveryHandler turns panics into internal errors.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		appErr := NewInternalError(fmt.Sprintf("panic recovered: %v", recovered), fmt.Errorf("%v", recovered))
		appErr.RequestID = c.GetString(RequestIDKey)

		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
	})
}

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// LogError logs err at a level chosen by its category.
func LogError(c *gin.Context, err *AppError) {
	entry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", err.RequestID,
	)

	msg := err.ErrBuilder.Msg
	switch err.Category {
	case CategoryValidation, CategoryPayload, CategoryRateLimit:
		if details := err.ErrBuilder.Details.Errors; len(details) > 0 {
			entry.Warn(msg, "details", details)
		} else {
			entry.Warn(msg)
		}
	case CategoryTimeout:
		entry.Info(msg, "cause", err.ErrBuilder.Unwrap())
	default:
		entry.Error(msg, "cause", err.ErrBuilder.Unwrap())
	}

	if err.StackTrace != "" && gin.Mode() == gin.DebugMode {
		entry.Debug("stack_trace", "trace", err.StackTrace)
	}
}
