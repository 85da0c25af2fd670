package interfaces

import "time"

// PricingInputs holds the six scalar parameters of the Black-Scholes-Merton
// model with continuous dividend yield.
type PricingInputs struct {
	CurrentPrice   float64 `json:"current_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToMaturity float64 `json:"time_to_maturity"` // years
	Volatility     float64 `json:"volatility"`       // annualized
	RiskFreeRate   float64 `json:"risk_free_rate"`
	DividendYield  float64 `json:"dividend_yield"`
}

// PricingResult contains option prices and Greeks for one set of inputs.
// Prices are rounded to 2 decimal places, Greeks to 4.
type PricingResult struct {
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
	CallDelta float64 `json:"call_delta"`
	PutDelta  float64 `json:"put_delta"`
	Gamma     float64 `json:"gamma"`
}

// HeatmapData holds the price surfaces for a spot x volatility sweep.
// Row i corresponds to SpotValues[i], column j to VolatilityValues[j].
type HeatmapData struct {
	CallPrices       [][]float64 `json:"call_prices"`
	PutPrices        [][]float64 `json:"put_prices"`
	SpotValues       []float64   `json:"spot_values"`
	VolatilityValues []float64   `json:"volatility_values"`
}

// PricingEngine defines the interface for option price calculation
type PricingEngine interface {
	CalculateOptionPrices(inputs PricingInputs) (*PricingResult, error)
	GenerateHeatmapData(base PricingInputs, spotMin, spotMax, volMin, volMax float64, gridSize int) *HeatmapData
}

// CalculationRecord represents one audited calculation request
type CalculationRecord struct {
	ID         uint      `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Params     string    `json:"params"` // JSON string of the request parameters
	DurationMs int64     `json:"duration_ms"`
	Status     string    `json:"status"` // "ok" or "error"
	CreatedAt  time.Time `json:"created_at"`
}

// StorageService defines the interface for the calculation audit trail
type StorageService interface {
	SaveCalculation(record *CalculationRecord) error
	GetRecentCalculations(endpoint string, limit int) ([]*CalculationRecord, error)
	CleanupOldData(before time.Time) error
	Close() error
}
