package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Pagination `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination carries list metadata.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// OK writes a 200 response.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 list response with pagination metadata.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Pagination{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 validation failure.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(domain.CodeValidation), message)
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, string(domain.CodeUnauthorized), message)
}

// Error maps err onto a status code. Unknown errors become a 500 without leaking detail.
func Error(c *gin.Context, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, string(domain.CodeInternal), "internal server error")
		return
	}
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	abort(c, StatusFor(appErr.Code), string(appErr.Code), appErr.Message)
}

// StatusFor returns the HTTP status for an error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
