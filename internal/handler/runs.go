package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/repository"
	"github.com/karndiy/gold-vertical-panel/internal/service"
)

type WorkflowRunner interface {
	RunWithID(ctx context.Context, runID string) service.Result
}

type RunHandler struct {
	Repo   repository.RunRepository
	Runner WorkflowRunner
	// BaseCtx outlives the request that triggered a run.
	BaseCtx context.Context
	Logger  *zap.Logger
}

func (h *RunHandler) Register(r *gin.Engine, mw ...gin.HandlerFunc) {
	g := r.Group("/api/v1", mw...)
	g.GET("/runs", h.list)
	g.POST("/workflow/run", h.trigger)
}

// @Summary List workflow runs
// @Tags runs
// @Security BearerAuth
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param state query string false "run state"
// @Success 200 {object} apiResponse
// @Router /api/v1/runs [get]
func (h *RunHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListWorkflowRunsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("state")); v != "" {
		params.State = &v
	}
	items, err := h.Repo.ListWorkflowRuns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": params.Limit, "offset": params.Offset})
}

// @Summary Trigger a workflow run
// @Tags runs
// @Security BearerAuth
// @Success 202 {object} apiResponse
// @Router /api/v1/workflow/run [post]
//
// trigger starts a run in the background and answers at once. A run that
// finds the lock held ends BUSY on its own.
func (h *RunHandler) trigger(c *gin.Context) {
	if h.Runner == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	runID := uuid.NewString()
	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.WithoutCancel(c.Request.Context())
	}
	go func() {
		res := h.Runner.RunWithID(ctx, runID)
		if h.Logger != nil {
			h.Logger.Info("triggered run finished",
				zap.String("run_id", runID),
				zap.String("state", string(res.State)),
			)
		}
	}()
	Accepted(c, gin.H{"run_id": runID})
}
