package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"owner-console/dtos"
	"owner-console/ownerapi"
	"owner-console/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockistCreator forwards a validated stockist to the owner API.
type StockistCreator interface {
	CreateStockist(ctx context.Context, stockist any) (json.RawMessage, error)
}

type StockistHandler struct {
	API StockistCreator
	Log *zap.Logger
}

func (h *StockistHandler) CreateStockist(c *gin.Context) {
	var req dtos.StockistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields := utils.FieldErrors(err, dtos.StockistMessages); fields != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	raw, err := h.API.CreateStockist(ownerContext(c), req)
	if err != nil {
		status := statusFor(err)
		msg := "Failed to add stockist"
		var apiErr *ownerapi.APIError
		if errors.As(err, &apiErr) && apiErr.MessageText != "" {
			msg = apiErr.MessageText
		}
		h.Log.Warn("stockist create failed", zap.String("retailer_code", string(req.RetailerCode)), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.Log.Info("stockist created", zap.String("retailer_code", string(req.RetailerCode)))
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Stockist added successfully!",
		"stockist": raw,
	})
}

// GenerateRetailerCode suggests a fresh retailer code for the form.
func (h *StockistHandler) GenerateRetailerCode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"retailerCode": utils.GenerateRetailerCode()})
}

// GetOptions lists the country and state choices for the form.
func (h *StockistHandler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.StockistOptionsResponse{
		Countries: utils.Countries,
		States:    utils.IndianStates,
	})
}
