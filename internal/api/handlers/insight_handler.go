// internal/api/handlers/insight_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tobihealthops/requiva-go/internal/analytics"
	"github.com/tobihealthops/requiva-go/internal/service"
)

// Shown instead of results when history is below a component's
// minimum.
const msgNeedMoreData = "not enough order history yet"

type InsightHandler struct {
	insights *service.InsightService
}

func NewInsightHandler(insights *service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

func (h *InsightHandler) snapshot(c *gin.Context) (*analytics.Dataset, bool) {
	ds, err := h.insights.Snapshot(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load order snapshot")
		return nil, false
	}
	return ds, true
}

func (h *InsightHandler) Reorders(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	preds := h.insights.Reorders(c.Request.Context(), ds)
	if len(preds) == 0 {
		c.JSON(http.StatusOK, gin.H{"predictions": []analytics.ReorderPrediction{}, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": preds})
}

func (h *InsightHandler) Spending(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	months, _ := strconv.Atoi(c.DefaultQuery("months", "0"))
	fc := h.insights.Spending(c.Request.Context(), ds, months)
	if fc == nil {
		c.JSON(http.StatusOK, gin.H{"forecast": nil, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": fc})
}

func (h *InsightHandler) Anomalies(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	anomalies, err := h.insights.Anomalies(c.Request.Context(), ds)
	if err != nil {
		h.modelFitError(c, err)
		return
	}
	if len(anomalies) == 0 {
		c.JSON(http.StatusOK, gin.H{"anomalies": []analytics.Anomaly{}, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": anomalies})
}

// ScoreOrder scores one candidate order against order history without
// saving it.
func (h *InsightHandler) ScoreOrder(c *gin.Context) {
	var payload orderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}

	score, err := h.insights.ScoreOrder(c.Request.Context(), payload.toRecord())
	if err != nil {
		h.modelFitError(c, err)
		return
	}
	if !score.Available {
		c.JSON(http.StatusOK, gin.H{"available": false, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *InsightHandler) Vendors(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	recs := h.insights.Vendors(c.Request.Context(), ds)
	if len(recs) == 0 {
		c.JSON(http.StatusOK, gin.H{"recommendations": gin.H{}, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *InsightHandler) Bulk(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	opps := h.insights.Bulk(c.Request.Context(), ds)
	if len(opps) == 0 {
		c.JSON(http.StatusOK, gin.H{"opportunities": []analytics.BulkOpportunity{}, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opps})
}

func (h *InsightHandler) Demand(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	item := strings.TrimSpace(c.Query("item"))
	daysAhead, _ := strconv.Atoi(c.DefaultQuery("days_ahead", "0"))
	fc := h.insights.Demand(c.Request.Context(), ds, item, daysAhead)
	if fc == nil {
		c.JSON(http.StatusOK, gin.H{"forecast": nil, "message": msgNeedMoreData})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": fc})
}

func (h *InsightHandler) TopItems(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	c.JSON(http.StatusOK, gin.H{"items": h.insights.TopItems(c.Request.Context(), ds, limit)})
}

func (h *InsightHandler) Dashboard(c *gin.Context) {
	dash, err := h.insights.Dashboard(c.Request.Context())
	if err != nil {
		h.modelFitError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// modelFitError maps hard model failures to 422 with the component
// context intact; anything else is a plain 500.
func (h *InsightHandler) modelFitError(c *gin.Context, err error) {
	if errors.Is(err, analytics.ErrModelFit) {
		log.Error().Err(err).Msg("model fit failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	errorResponse(c, http.StatusInternalServerError, "insight computation failed")
}
