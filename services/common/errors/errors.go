package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error categories surfaced to API callers
const (
	CategoryValidation        = "VALIDATION"
	CategoryNotFound          = "NOT_FOUND"
	CategoryConflict          = "CONFLICT"
	CategoryInsufficientStock = "INSUFFICIENT_STOCK"
	CategoryUnauthorized      = "UNAUTHORIZED"
	CategoryForbidden         = "FORBIDDEN"
	CategoryExternalService   = "EXTERNAL_SERVICE"
	CategoryTransaction       = "TRANSACTION"
	CategoryInternal          = "INTERNAL"
)

// Error represents an application error
type Error struct {
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, category, message string, err error) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  message,
		Err:      err,
	}
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CategoryValidation, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CategoryNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, CategoryConflict, message, nil)
}

func InsufficientStock(message string) *Error {
	return New(http.StatusConflict, CategoryInsufficientStock, message, nil)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CategoryUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CategoryForbidden, message, nil)
}

func External(message string, err error) *Error {
	return New(http.StatusBadGateway, CategoryExternalService, message, err)
}

func Transaction(message string, err error) *Error {
	return New(http.StatusInternalServerError, CategoryTransaction, message, err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, CategoryInternal, message, err)
}

// As reports whether err is (or wraps) an *Error and returns it
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries the given category
func IsCategory(err error, category string) bool {
	appErr, ok := As(err)
	return ok && appErr.Category == category
}

// Wrap keeps application errors untouched and turns anything else into an
// internal error carrying the given message.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(message, err)
}

// exposeDetails controls whether wrapped error text is included in responses.
var exposeDetails = true

// SetExposeDetails toggles the "details" field of error responses. Production
// deployments turn it off.
func SetExposeDetails(expose bool) {
	exposeDetails = expose
}

// Respond writes err as a structured JSON response and aborts the chain
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("Internal server error", err)
	}

	body := gin.H{
		"code":     appErr.Code,
		"category": appErr.Category,
		"message":  appErr.Message,
	}
	if exposeDetails && appErr.Err != nil {
		body["details"] = appErr.Err.Error()
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}

// ErrorMiddleware renders the last error attached with c.Error
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
		}
	}
}
