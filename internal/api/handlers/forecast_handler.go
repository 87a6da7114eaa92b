package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/modelstore"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) parseIDs(c *gin.Context) (retailerID, productID int64, ok bool) {
	retailerID, err := strconv.ParseInt(strings.TrimSpace(c.Query("retailer_id")), 10, 64)
	if err != nil || retailerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "retailer_id must be a positive integer"})
		return 0, 0, false
	}

	productID, err = strconv.ParseInt(strings.TrimSpace(c.Query("product_id")), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "product_id must be a positive integer"})
		return 0, 0, false
	}

	return retailerID, productID, true
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	retailerID, productID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	forceRetrain := c.Query("force_retrain") == "true"

	result, err := h.service.Forecast(c.Request.Context(), retailerID, productID, days, forceRetrain)
	if err != nil {
		respondForecastError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) GetPortfolioAnalysis(c *gin.Context) {
	retailerID, err := strconv.ParseInt(strings.TrimSpace(c.Query("retailer_id")), 10, 64)
	if err != nil || retailerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "retailer_id must be a positive integer"})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	topN, _ := strconv.Atoi(c.DefaultQuery("top_n", "10"))
	if topN <= 0 {
		topN = 10
	}

	report, err := h.service.AnalyzePortfolio(c.Request.Context(), retailerID, days, topN)
	if err != nil {
		respondForecastError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ForecastHandler) GetImportance(c *gin.Context) {
	retailerID, productID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	importance, err := h.service.ModelImportance(c.Request.Context(), retailerID, productID)
	if err != nil {
		respondForecastError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"retailer_id": retailerID,
		"product_id":  productID,
		"importance":  importance,
	})
}

func (h *ForecastHandler) TrainModel(c *gin.Context) {
	retailerID, productID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	model, err := h.service.TrainModel(c.Request.Context(), retailerID, productID)
	if err != nil {
		respondForecastError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"retailer_id":   retailerID,
		"product_id":    productID,
		"training_rows": model.TrainingRows,
		"trained_at":    model.TrainedAt,
	})
}

func respondForecastError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientHistory):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "insufficient_history",
			"message": "not enough sales history to train a model for this product",
		})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "product_not_found",
			"message": "product does not exist",
		})
	case errors.Is(err, modelstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "model_not_found",
			"message": "no trained model exists for this product",
		})
	case errors.Is(err, domain.ErrNoPurchaseHistory):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_purchase_history",
			"message": "retailer has no sales or order history to analyze",
		})
	default:
		log.Error().Err(err).Msg("forecast request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "forecast computation failed",
		})
	}
}
