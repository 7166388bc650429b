package apperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ===== Error model (各パッケージ共通) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeLimitExceeded   Code = "LIMIT_EXCEEDED"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeInternal        Code = "INTERNAL"
)

// 内部エラー時にクライアントへ返す固定メッセージ
const internalMessage = "internal server error"

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func Invalid(msg string) *Error         { return &Error{Code: CodeInvalidArgument, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Code: CodeConflict, Message: msg} }
func LimitExceeded(msg string) *Error   { return &Error{Code: CodeLimitExceeded, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Code: CodeUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Code: CodeForbidden, Message: msg} }
func Internal(msg string) *Error        { return &Error{Code: CodeInternal, Message: msg} }

// CodeOf returns the taxonomy code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeLimitExceeded:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorDTO struct {
	Error *Error `json:"error"`
}

func Body(code Code, msg string) errorDTO {
	return errorDTO{Error: &Error{Code: code, Message: msg}}
}

// Respond writes err as {"error":{"code","message"}}.
// Errors outside the taxonomy are logged with detail and answered with an opaque message.
func Respond(c *gin.Context, err error) {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		c.JSON(HTTPStatus(e), errorDTO{Error: e})
		return
	}
	log.Printf("[ERROR] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, c.GetString(RequestIDKey), err)
	c.JSON(http.StatusInternalServerError, Body(CodeInternal, internalMessage))
}

// Abort is Respond for middleware.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}

// gin.Context key that holds the request id (set by httpx.RequestID).
const RequestIDKey = "request_id"
