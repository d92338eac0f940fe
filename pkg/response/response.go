// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// PNG sends raw image bytes.
func PNG(c *gin.Context, body []byte) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", body)
}

// Fail sends an error envelope with the given status.
func Fail(c *gin.Context, status int, err string) {
	c.JSON(status, Body{Error: err})
}

// Abort is Fail for middleware: later handlers are skipped.
func Abort(c *gin.Context, status int, err string) {
	c.AbortWithStatusJSON(status, Body{Error: err})
}

func BadRequest(c *gin.Context, err string)   { Fail(c, http.StatusBadRequest, err) }
func Unauthorized(c *gin.Context, err string) { Fail(c, http.StatusUnauthorized, err) }
func Forbidden(c *gin.Context, err string)    { Fail(c, http.StatusForbidden, err) }
func NotFound(c *gin.Context, err string)     { Fail(c, http.StatusNotFound, err) }

// Conflict sends 409, used when an operation needs state the caller has not set up.
func Conflict(c *gin.Context, err string) { Fail(c, http.StatusConflict, err) }

// ServiceUnavailable sends 503 for optional integrations that are switched off.
func ServiceUnavailable(c *gin.Context, err string) { Fail(c, http.StatusServiceUnavailable, err) }

// Internal sends 500.
func Internal(c *gin.Context, err string) { Fail(c, http.StatusInternalServerError, err) }
