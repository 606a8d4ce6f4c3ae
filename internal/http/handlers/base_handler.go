// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pronto/internal/modules/pricing"
	"pronto/internal/modules/request"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeRequestError maps request service sentinels onto HTTP statuses.
// "not_found" and "already_taken" are the wire names the accept contract
// promises to callers.
func writeRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, request.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, request.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found")
	case errors.Is(err, request.ErrAlreadyTaken):
		writeError(c, http.StatusConflict, "already_taken")
	case errors.Is(err, request.ErrInvalidState), errors.Is(err, request.ErrActiveRequest):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
