package services

import (
	"errors"
	"fmt"
	"math"

	"blackscholes-api/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidInput is returned when a pricing precondition is violated
var ErrInvalidInput = errors.New("invalid input")

const (
	pricePrecision = 2 // decimal places for option prices
	greekPrecision = 4 // decimal places for Greeks

	minGridSize = 5
	maxGridSize = 20
)

// stdNormal is the standard normal distribution used for N(x) and n(x).
// distuv's CDF is erf-based, so it stays accurate for large |d1|.
var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// BlackScholesEngine computes closed-form option prices and Greeks.
// It holds no mutable state; every calculation is local to the call.
type BlackScholesEngine struct {
	logger *logrus.Logger
}

// NewBlackScholesEngine creates a new Black-Scholes pricing engine
func NewBlackScholesEngine() *BlackScholesEngine {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &BlackScholesEngine{
		logger: logger,
	}
}

// CalculateOptionPrices calculates Black-Scholes-Merton call/put prices,
// deltas and gamma for the given inputs. Prices are rounded to 2 decimal
// places and Greeks to 4, both half-to-even.
func (e *BlackScholesEngine) CalculateOptionPrices(inputs interfaces.PricingInputs) (*interfaces.PricingResult, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	S := inputs.CurrentPrice
	K := inputs.StrikePrice
	T := inputs.TimeToMaturity
	sigma := inputs.Volatility
	r := inputs.RiskFreeRate
	q := inputs.DividendYield

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	discR := math.Exp(-r * T)
	discQ := math.Exp(-q * T)

	callPrice := S*discQ*stdNormal.CDF(d1) - K*discR*stdNormal.CDF(d2)
	putPrice := K*discR*stdNormal.CDF(-d2) - S*discQ*stdNormal.CDF(-d1)
	callDelta := discQ * stdNormal.CDF(d1)
	putDelta := -discQ * stdNormal.CDF(-d1)
	gamma := stdNormal.Prob(d1) / (S * sigma * sqrtT)

	return &interfaces.PricingResult{
		CallPrice: roundBank(callPrice, pricePrecision),
		PutPrice:  roundBank(putPrice, pricePrecision),
		CallDelta: roundBank(callDelta, greekPrecision),
		PutDelta:  roundBank(putDelta, greekPrecision),
		Gamma:     roundBank(gamma, greekPrecision),
	}, nil
}

// GenerateHeatmapData sweeps spot price and volatility across the given
// ranges, pricing every (spot, vol) combination with the remaining inputs
// held fixed. It never fails outward: cells the pricer cannot handle fall
// back to intrinsic value so a single bad cell does not lose the surface.
func (e *BlackScholesEngine) GenerateHeatmapData(base interfaces.PricingInputs, spotMin, spotMax, volMin, volMax float64, gridSize int) *interfaces.HeatmapData {
	// Caller may supply ranges in either order
	if spotMin > spotMax {
		spotMin, spotMax = spotMax, spotMin
	}
	if volMin > volMax {
		volMin, volMax = volMax, volMin
	}

	// Widen degenerate ranges so a single requested point still yields a
	// usable axis for visualization
	if spotMin == spotMax {
		spotMin, spotMax = widenRange(spotMin, 0.9, 1.1, 0.1, math.Inf(1))
	}
	if volMin == volMax {
		volMin, volMax = widenRange(volMin, 0.5, 1.5, 0.01, 2.0)
	}

	if gridSize < minGridSize {
		gridSize = minGridSize
	}
	if gridSize > maxGridSize {
		gridSize = maxGridSize
	}

	spotValues := evenlySpaced(spotMin, spotMax, gridSize)
	volValues := evenlySpaced(volMin, volMax, gridSize)

	K := base.StrikePrice
	discountedStrike := K * math.Exp(-base.RiskFreeRate*base.TimeToMaturity)

	callPrices := make([][]float64, gridSize)
	putPrices := make([][]float64, gridSize)

	for i, spot := range spotValues {
		callRow := make([]float64, gridSize)
		putRow := make([]float64, gridSize)

		for j, vol := range volValues {
			// Guard against non-positive cells; the axis construction
			// should never produce them unless the caller passed a range
			// touching zero
			if spot <= 0 || vol <= 0 {
				callRow[j] = 0
				putRow[j] = roundBank(math.Max(0, discountedStrike-spot), pricePrecision)
				continue
			}

			inputs := base
			inputs.CurrentPrice = spot
			inputs.Volatility = vol

			result, err := e.CalculateOptionPrices(inputs)
			if err != nil || !isFinite(result) {
				if err != nil {
					e.logger.WithFields(logrus.Fields{
						"spot":       spot,
						"volatility": vol,
					}).WithError(err).Warn("Cell pricing failed, using intrinsic value")
				}
				callRow[j] = roundBank(math.Max(0, spot-K), pricePrecision)
				putRow[j] = roundBank(math.Max(0, K-spot), pricePrecision)
				continue
			}

			callRow[j] = result.CallPrice
			putRow[j] = result.PutPrice
		}

		callPrices[i] = callRow
		putPrices[i] = putRow
	}

	for i := range spotValues {
		spotValues[i] = roundBank(spotValues[i], pricePrecision)
		volValues[i] = roundBank(volValues[i], pricePrecision)
	}

	return &interfaces.HeatmapData{
		CallPrices:       callPrices,
		PutPrices:        putPrices,
		SpotValues:       spotValues,
		VolatilityValues: volValues,
	}
}

func validateInputs(inputs interfaces.PricingInputs) error {
	switch {
	case inputs.CurrentPrice <= 0:
		return fmt.Errorf("%w: current_price must be positive, got %g", ErrInvalidInput, inputs.CurrentPrice)
	case inputs.StrikePrice <= 0:
		return fmt.Errorf("%w: strike_price must be positive, got %g", ErrInvalidInput, inputs.StrikePrice)
	case inputs.TimeToMaturity <= 0:
		return fmt.Errorf("%w: time_to_maturity must be positive, got %g", ErrInvalidInput, inputs.TimeToMaturity)
	case inputs.Volatility <= 0:
		return fmt.Errorf("%w: volatility must be positive, got %g", ErrInvalidInput, inputs.Volatility)
	case inputs.RiskFreeRate < 0 || inputs.RiskFreeRate > 1:
		return fmt.Errorf("%w: risk_free_rate must be between 0 and 1, got %g", ErrInvalidInput, inputs.RiskFreeRate)
	case inputs.DividendYield < 0 || inputs.DividendYield > 1:
		return fmt.Errorf("%w: dividend_yield must be between 0 and 1, got %g", ErrInvalidInput, inputs.DividendYield)
	}
	return nil
}

// widenRange spreads a degenerate [v, v] range multiplicatively, keeping the
// result within [floor, ceil] when possible. Near the floor or the ceiling
// the clamps can cross or collapse the spread; the unclamped spread is used
// then, so the returned range always has min < max for any v > 0.
func widenRange(v, shrink, grow, floor, ceil float64) (float64, float64) {
	lo := math.Max(floor, v*shrink)
	hi := math.Min(ceil, v*grow)
	if lo >= hi {
		lo, hi = v*shrink, v*grow
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// evenlySpaced returns n points from min to max inclusive of both endpoints
func evenlySpaced(min, max float64, n int) []float64 {
	values := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	values[n-1] = max
	return values
}

func isFinite(r *interfaces.PricingResult) bool {
	for _, v := range []float64{r.CallPrice, r.PutPrice, r.CallDelta, r.PutDelta, r.Gamma} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// roundBank rounds half-to-even to the given number of decimal places
func roundBank(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).RoundBank(places).InexactFloat64()
}
