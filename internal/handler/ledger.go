package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karndiy/gold-vertical-panel/internal/models"
)

type LedgerManager interface {
	List(ctx context.Context, limit int) ([]models.ProcessedUpdate, error)
	Reset(ctx context.Context, sequenceID, timestamp string) (int64, error)
}

type LedgerHandler struct {
	Ledger LedgerManager
}

func (h *LedgerHandler) Register(r *gin.Engine, mw ...gin.HandlerFunc) {
	g := r.Group("/api/v1/ledger", mw...)
	g.GET("", h.list)
	g.DELETE("", h.reset)
}

// @Summary List processed updates
// @Tags ledger
// @Security BearerAuth
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/v1/ledger [get]
func (h *LedgerHandler) list(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "ledger unavailable", nil)
		return
	}
	items, err := h.Ledger.List(c.Request.Context(), intQuery(c, "limit", 50))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Forget one processed update
// @Tags ledger
// @Security BearerAuth
// @Param seq query string true "sequence id"
// @Param ts query string true "update timestamp"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/ledger [delete]
//
// reset forgets one (seq, ts) entry so the next run publishes it again.
func (h *LedgerHandler) reset(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "ledger unavailable", nil)
		return
	}
	seq := strings.TrimSpace(c.Query("seq"))
	ts := strings.TrimSpace(c.Query("ts"))
	if seq == "" || ts == "" {
		Error(c, http.StatusBadRequest, "seq and ts are required", nil)
		return
	}
	n, err := h.Ledger.Reset(c.Request.Context(), seq, ts)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if n == 0 {
		Error(c, http.StatusNotFound, "no such ledger entry", nil)
		return
	}
	Ok(c, gin.H{"removed": n}, nil)
}
