// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/pkg/types"
)

// Response is the JSON envelope of every API reply. Code is 0 on success
// and -1 on failure; Msg carries the clerk-facing message.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Success replies 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "success", Data: data})
}

// Fail replies with status and a clerk-facing message.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: -1, Msg: msg})
}

// FailWithData is Fail with a payload, used when a failed run still
// produced outcomes to show.
func FailWithData(c *gin.Context, status int, msg string, data any) {
	c.AbortWithStatusJSON(status, Response{Code: -1, Msg: msg, Data: data})
}

// FailErr maps err to a status and its user message.
func FailErr(c *gin.Context, err error) {
	_ = c.Error(err)
	Fail(c, statusFor(err), types.UserMessage(err))
}

func statusFor(err error) int {
	var ee *extract.ExtractionError
	switch {
	case errors.Is(err, types.ErrBatchInProgress):
		return http.StatusConflict
	case errors.Is(err, types.ErrNoCitations), errors.Is(err, types.ErrTemplateSheetNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrTemplateFileUnreadable), errors.Is(err, types.ErrMissingDocuments):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNoEntries), errors.Is(err, types.ErrNothingExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &ee),
		errors.Is(err, types.ErrProviderEmptyResponse),
		errors.Is(err, types.ErrProviderMalformedResponse),
		errors.Is(err, types.ErrProviderPolicyBlocked):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// attachment sends data as a file download.
func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}
