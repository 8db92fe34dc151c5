package arima

import (
	"fmt"
	"strings"
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// SeasonalOrder represents the seasonal part (P, D, Q, s). The zero value
// means no seasonal component.
type SeasonalOrder struct {
	P int // Seasonal AR order
	D int // Seasonal differencing order
	Q int // Seasonal MA order
	S int // Seasonal period (e.g., 12 for monthly data)
}

// IsZero reports whether the order has no seasonal terms.
func (o SeasonalOrder) IsZero() bool {
	return o.P == 0 && o.D == 0 && o.Q == 0
}

func (o SeasonalOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", o.P, o.D, o.Q, o.S)
}

// Trend selects the deterministic terms of the mean.
type Trend int

const (
	TrendNone           Trend = iota // no deterministic terms
	TrendConstant                    // intercept
	TrendLinear                      // linear time trend
	TrendConstantLinear              // intercept and linear time trend
)

var trendCodes = map[Trend]string{
	TrendNone:           "n",
	TrendConstant:       "c",
	TrendLinear:         "t",
	TrendConstantLinear: "ct",
}

func (t Trend) String() string {
	if s, ok := trendCodes[t]; ok {
		return s
	}
	return fmt.Sprintf("Trend(%d)", int(t))
}

// ParseTrend parses "n", "c", "t" or "ct". An empty string is TrendNone.
func ParseTrend(s string) (Trend, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if code == "" {
		return TrendNone, nil
	}
	for t, c := range trendCodes {
		if c == code {
			return t, nil
		}
	}
	return TrendNone, fmt.Errorf("arima: unknown trend %q", s)
}

func (t Trend) hasConstant() bool {
	return t == TrendConstant || t == TrendConstantLinear
}

func (t Trend) hasLinear() bool {
	return t == TrendLinear || t == TrendConstantLinear
}

// Config describes the model to fit.
type Config struct {
	Order    Order
	Seasonal SeasonalOrder
	Trend    Trend
	// MaxIterations bounds the optimiser. Zero means 2000.
	MaxIterations int
}

const defaultMaxIterations = 2000

// String renders the config in the usual ARIMA(p,d,q)(P,D,Q,s) notation.
func (c Config) String() string {
	s := "ARIMA" + c.Order.String()
	if !c.Seasonal.IsZero() {
		s += c.Seasonal.String()
	}
	if c.Trend != TrendNone {
		s += " trend=" + c.Trend.String()
	}
	return s
}

func (c Config) validate() error {
	o, so := c.Order, c.Seasonal
	if o.P < 0 || o.D < 0 || o.Q < 0 || so.P < 0 || so.D < 0 || so.Q < 0 || so.S < 0 {
		return fmt.Errorf("%w: negative order in %s", ErrInvalidOrder, c)
	}
	if !so.IsZero() && so.S < 2 {
		return fmt.Errorf("%w: seasonal terms need a period of at least 2, got %d", ErrInvalidOrder, so.S)
	}
	if _, ok := trendCodes[c.Trend]; !ok {
		return fmt.Errorf("%w: unknown trend %d", ErrInvalidOrder, int(c.Trend))
	}
	return nil
}

// period returns the seasonal period, or 0 when there are no seasonal terms.
func (c Config) period() int {
	if c.Seasonal.IsZero() {
		return 0
	}
	return c.Seasonal.S
}

// arLags is the number of leading differenced observations the likelihood
// conditions on.
func (c Config) arLags() int {
	return c.Order.P + c.period()*c.Seasonal.P
}

// lost is the number of observations consumed by differencing.
func (c Config) lost() int {
	return c.Order.D + c.period()*c.Seasonal.D
}
