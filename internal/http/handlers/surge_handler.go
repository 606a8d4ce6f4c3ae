// README: Ops endpoint for the demand multiplier.
package handlers

import (
	"context"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SurgeControl reads and publishes the live surge multiplier.
type SurgeControl interface {
	Current(ctx context.Context) float64
	Set(ctx context.Context, multiplier float64) error
}

type SurgeHandler struct {
	surge SurgeControl
}

func NewSurgeHandler(surge SurgeControl) *SurgeHandler {
	return &SurgeHandler{surge: surge}
}

type surgeReq struct {
	Multiplier float64 `json:"multiplier"`
}

// Get handles GET /api/admin/surge.
func (h *SurgeHandler) Get(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"multiplier": h.surge.Current(c.Request.Context())})
}

// Set handles PUT /api/admin/surge.
func (h *SurgeHandler) Set(c *gin.Context) {
	var req surgeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Multiplier <= 0 || math.IsNaN(req.Multiplier) || math.IsInf(req.Multiplier, 0) {
		writeError(c, http.StatusBadRequest, "multiplier must be positive")
		return
	}
	if err := h.surge.Set(c.Request.Context(), req.Multiplier); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"multiplier": req.Multiplier})
}
