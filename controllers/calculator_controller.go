package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"blackscholes-api/interfaces"
	"blackscholes-api/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultGridSize = 10

// CalculatorController handles option pricing requests
type CalculatorController struct {
	engine         interfaces.PricingEngine
	storageService interfaces.StorageService
	activityLogger *services.ActivityLogger
	logger         *logrus.Logger
}

// NewCalculatorController creates a new calculator controller. The storage
// service and activity logger are optional; pricing works without them.
func NewCalculatorController(
	engine interfaces.PricingEngine,
	storage interfaces.StorageService,
	activityLogger *services.ActivityLogger,
) *CalculatorController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &CalculatorController{
		engine:         engine,
		storageService: storage,
		activityLogger: activityLogger,
		logger:         logger,
	}
}

// CalculationRequest represents a single-price calculation request
type CalculationRequest struct {
	CurrentPrice   float64 `json:"current_price" binding:"required,gt=0"`
	StrikePrice    float64 `json:"strike_price" binding:"required,gt=0"`
	TimeToMaturity float64 `json:"time_to_maturity" binding:"required,gt=0"`
	Volatility     float64 `json:"volatility" binding:"required,gt=0,lte=5"`
	RiskFreeRate   float64 `json:"risk_free_rate" binding:"gte=0,lte=1"`
	DividendYield  float64 `json:"dividend_yield" binding:"gte=0,lte=1"`
}

// HeatmapRequest represents a heatmap generation request
type HeatmapRequest struct {
	BaseParams CalculationRequest `json:"base_params" binding:"required"`
	SpotMin    float64            `json:"spot_min" binding:"required,gt=0"`
	SpotMax    float64            `json:"spot_max" binding:"required,gt=0"`
	VolMin     float64            `json:"vol_min" binding:"required,gt=0,lte=5"`
	VolMax     float64            `json:"vol_max" binding:"required,gt=0,lte=5"`
	GridSize   int                `json:"grid_size" binding:"omitempty,min=5,max=20"`
}

// RegisterRoutes registers the calculator endpoints on the given router group
func (cc *CalculatorController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/calculate", cc.HandleCalculate)
	api.POST("/heatmap", cc.HandleHeatmap)
}

// HandleCalculate calculates Black-Scholes option prices and Greeks
// POST /api/calculate
func (cc *CalculatorController) HandleCalculate(c *gin.Context) {
	var req CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	start := time.Now()
	result, err := cc.engine.CalculateOptionPrices(interfaces.PricingInputs{
		CurrentPrice:   req.CurrentPrice,
		StrikePrice:    req.StrikePrice,
		TimeToMaturity: req.TimeToMaturity,
		Volatility:     req.Volatility,
		RiskFreeRate:   req.RiskFreeRate,
		DividendYield:  req.DividendYield,
	})
	if err != nil {
		cc.logger.WithError(err).Warn("Calculation rejected")
		cc.recordRequest("calculate", calculationParams(req), time.Since(start), "error")

		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Calculation failed",
			"details": err.Error(),
		})
		return
	}

	cc.recordRequest("calculate", calculationParams(req), time.Since(start), "ok")
	c.JSON(http.StatusOK, result)
}

// HandleHeatmap generates heatmap data for visualization
// POST /api/heatmap
func (cc *CalculatorController) HandleHeatmap(c *gin.Context) {
	var req HeatmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if req.GridSize == 0 {
		req.GridSize = defaultGridSize
	}

	start := time.Now()
	data := cc.engine.GenerateHeatmapData(
		interfaces.PricingInputs{
			StrikePrice:    req.BaseParams.StrikePrice,
			TimeToMaturity: req.BaseParams.TimeToMaturity,
			RiskFreeRate:   req.BaseParams.RiskFreeRate,
			DividendYield:  req.BaseParams.DividendYield,
		},
		req.SpotMin, req.SpotMax,
		req.VolMin, req.VolMax,
		req.GridSize,
	)

	cc.recordRequest("heatmap", heatmapParams(req), time.Since(start), "ok")
	c.JSON(http.StatusOK, data)
}

// recordRequest writes the audit trail; failures there must not fail the
// pricing response
func (cc *CalculatorController) recordRequest(endpoint string, params map[string]interface{}, duration time.Duration, status string) {
	if cc.activityLogger != nil {
		if err := cc.activityLogger.LogCalculation(endpoint, params, duration, status); err != nil {
			cc.logger.WithError(err).Warn("Failed to write activity log")
		}
	}

	if cc.storageService != nil {
		record := &interfaces.CalculationRecord{
			Endpoint:   endpoint,
			Params:     encodeParams(params),
			DurationMs: duration.Milliseconds(),
			Status:     status,
		}
		if err := cc.storageService.SaveCalculation(record); err != nil {
			cc.logger.WithError(err).Warn("Failed to save calculation record")
		}
	}
}

func encodeParams(params map[string]interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func calculationParams(req CalculationRequest) map[string]interface{} {
	return map[string]interface{}{
		"current_price":    req.CurrentPrice,
		"strike_price":     req.StrikePrice,
		"time_to_maturity": req.TimeToMaturity,
		"volatility":       req.Volatility,
		"risk_free_rate":   req.RiskFreeRate,
		"dividend_yield":   req.DividendYield,
	}
}

func heatmapParams(req HeatmapRequest) map[string]interface{} {
	return map[string]interface{}{
		"strike_price":     req.BaseParams.StrikePrice,
		"time_to_maturity": req.BaseParams.TimeToMaturity,
		"risk_free_rate":   req.BaseParams.RiskFreeRate,
		"dividend_yield":   req.BaseParams.DividendYield,
		"spot_min":         req.SpotMin,
		"spot_max":         req.SpotMax,
		"vol_min":          req.VolMin,
		"vol_max":          req.VolMax,
		"grid_size":        req.GridSize,
	}
}
