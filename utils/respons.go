package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the wire shape for every failed request:
// {"ok":false,"code":"validation","message":"..."}. The message is always a
// fixed, user-facing Portuguese string; raw internal errors never leak here.
type ErrorBody struct {
	Ok      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RespondOK writes a success payload. Callers pass the full body so each
// endpoint controls its own success shape ({ok:true, orderReference:...},
// {ok:true, orders:[...]}, ...).
func RespondOK(c *gin.Context, status int, body gin.H) {
	if _, exists := body["ok"]; !exists {
		body["ok"] = true
	}
	c.JSON(status, body)
}

// RespondErrorCode writes the tagged error envelope used by the public
// submission endpoint.
func RespondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{Ok: false, Code: code, Message: message})
}

// RespondErrorMessage writes the codeless error envelope used by admin reads.
func RespondErrorMessage(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Ok: false, Message: message})
}

// AbortErrorCode is RespondErrorCode plus aborting the middleware chain.
func AbortErrorCode(c *gin.Context, status int, code, message string) {
	RespondErrorCode(c, status, code, message)
	c.Abort()
}

// NoStore marks a response as uncacheable. Every order endpoint carries it.
func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}

// PrivateNoStore is the admin variant: session-scoped responses must not be
// shared across cookies by an intermediate cache.
func PrivateNoStore(c *gin.Context) {
	c.Header("Cache-Control", "private, no-store")
	c.Header("Vary", "Cookie")
}

// StatusForCode maps the error taxonomy to HTTP status codes.
func StatusForCode(code string) int {
	switch code {
	case "validation":
		return http.StatusBadRequest
	case "setup":
		return http.StatusServiceUnavailable
	case "auth":
		return http.StatusUnauthorized
	case "stale":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
