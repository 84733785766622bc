package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/engine"
	"github.com/restockly/backend/internal/service"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Forecast handles POST /forecast: a single-SKU demand forecast.
func (h *AnalysisHandler) Forecast(c *gin.Context) {
	var req engine.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	results, err := h.service.Forecast(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if domain.IsInputError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "forecast failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": results})
}

// Reorder handles POST /reorder: a portfolio-wide reorder pass over the
// snapshot supplied in the request body.
func (h *AnalysisHandler) Reorder(c *gin.Context) {
	req, ok := h.bindEvaluationRequest(c)
	if !ok {
		return
	}

	result, err := h.service.RunReorderPass(c.Request.Context(), req)
	if err != nil {
		h.writeEvaluationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":          result.RunID,
		"recommendations": result.Recommendations,
		"failures":        result.Failures,
	})
}

// Analyze handles POST /analysis: the full analysis (recommendations plus
// portfolio report) over the supplied snapshot.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	req, ok := h.bindEvaluationRequest(c)
	if !ok {
		return
	}

	result, err := h.service.RunAnalysis(c.Request.Context(), req)
	if err != nil {
		h.writeEvaluationError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeStored handles POST /analysis/run: a full analysis over the current
// snapshot in the store.
func (h *AnalysisHandler) AnalyzeStored(c *gin.Context) {
	var budget *float64
	if raw := strings.TrimSpace(c.Query("budget")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget", "details": raw})
			return
		}
		budget = &value
	}

	result, err := h.service.RunStoredAnalysis(c.Request.Context(), budget)
	if err != nil {
		h.writeEvaluationError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) bindEvaluationRequest(c *gin.Context) (engine.EvaluationRequest, bool) {
	var req engine.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return req, false
	}
	return req, true
}

func (h *AnalysisHandler) writeEvaluationError(c *gin.Context, err error) {
	if domain.IsInputError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation request", "details": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed", "details": err.Error()})
}
