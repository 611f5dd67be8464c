package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

type SnapshotReader interface {
	Load() ([]snapshot.Snapshot, error)
}

// SnapshotHandler serves the cached price table. It never fetches.
type SnapshotHandler struct {
	Store  SnapshotReader
	MaxAge time.Duration
	Now    func() time.Time
}

func (h *SnapshotHandler) Register(r *gin.Engine, mw ...gin.HandlerFunc) {
	g := r.Group("/api/v1/snapshots", mw...)
	g.GET("", h.list)
	g.GET("/latest", h.latest)
}

// @Summary List cached snapshots (oldest first)
// @Tags snapshots
// @Security BearerAuth
// @Param limit query int false "keep only the newest N"
// @Success 200 {object} apiResponse
// @Failure 500 {object} apiResponse
// @Router /api/v1/snapshots [get]
func (h *SnapshotHandler) list(c *gin.Context) {
	list, ok := h.load(c)
	if !ok {
		return
	}
	total := len(list)
	if limit := intQuery(c, "limit", 0); limit > 0 && limit < total {
		list = list[total-limit:]
	}
	Ok(c, list, map[string]any{"total": total})
}

type latestView struct {
	Latest    snapshot.Snapshot  `json:"latest"`
	Previous  *snapshot.Snapshot `json:"previous,omitempty"`
	Deltas    *snapshot.Deltas   `json:"deltas,omitempty"`
	Trend     string             `json:"trend"`
	Freshness service.Freshness  `json:"freshness"`
}

// @Summary Latest snapshot with deltas, trend and freshness
// @Tags snapshots
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/snapshots/latest [get]
func (h *SnapshotHandler) latest(c *gin.Context) {
	list, ok := h.load(c)
	if !ok {
		return
	}
	latest, found := snapshot.Latest(list)
	if !found {
		Error(c, http.StatusNotFound, "no cached snapshots", nil)
		return
	}
	view := latestView{
		Latest:    latest,
		Trend:     latest.Trend().String(),
		Freshness: service.CheckFreshness(list, h.now(), h.MaxAge),
	}
	if prev, ok := snapshot.Previous(list); ok {
		d := snapshot.Delta(latest, prev)
		view.Previous = &prev
		view.Deltas = &d
	}
	Ok(c, view, nil)
}

func (h *SnapshotHandler) load(c *gin.Context) ([]snapshot.Snapshot, bool) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "snapshot store unavailable", nil)
		return nil, false
	}
	list, err := h.Store.Load()
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return nil, false
	}
	return list, true
}

func (h *SnapshotHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
