// Package autoarima implements automatic ARIMA model selection.
package autoarima

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("autoarima: no candidate model could be fitted")

// Criterion is the information criterion minimised by the search.
type Criterion string

const (
	AICc Criterion = "aicc"
	AIC  Criterion = "aic"
	BIC  Criterion = "bic"
)

// ParseCriterion accepts aicc, aic or bic in any case.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case AICc, AIC, BIC:
		return c, nil
	case "":
		return AICc, nil
	}
	return "", fmt.Errorf("autoarima: unknown criterion %q", s)
}

func (c Criterion) of(m *arima.Model) float64 {
	switch c {
	case AIC:
		return m.AIC
	case BIC:
		return m.BIC
	default:
		return m.AICc
	}
}

// Config holds configuration for auto ARIMA search.
type Config struct {
	MaxP      int       // Maximum AR order (default: 3)
	MaxD      int       // Maximum differencing order (default: 2)
	MaxQ      int       // Maximum MA order (default: 3)
	MaxSP     int       // Maximum seasonal AR order (default: 1)
	MaxSD     int       // Maximum seasonal differencing order (default: 1)
	MaxSQ     int       // Maximum seasonal MA order (default: 1)
	Period    int       // Seasonal period, 0 for non-seasonal models
	Stepwise  bool      // Use stepwise search instead of exhaustive
	Criterion Criterion // Information criterion (default: AICc)
	Alpha     float64   // KPSS level used to choose d (default: 0.05)
	Drift     bool      // Add a constant (d+D = 0) or drift (d+D = 1)
	CacheSize int       // Fitted candidates kept for revisits (default: 128)
}

// DefaultConfig returns the default auto ARIMA configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:      3,
		MaxD:      2,
		MaxQ:      3,
		MaxSP:     1,
		MaxSD:     1,
		MaxSQ:     1,
		Stepwise:  true,
		Criterion: AICc,
		Alpha:     0.05,
		Drift:     true,
		CacheSize: 128,
	}
}

// Candidate is one evaluated order.
type Candidate struct {
	Config arima.Config
	Score  float64 // criterion value, +Inf when the fit failed
	Err    error
}

// Result represents the result of auto ARIMA model selection.
type Result struct {
	Model      *arima.Model
	Config     arima.Config
	Criterion  Criterion
	Score      float64
	Candidates []Candidate // in evaluation order

	// ModelsEvaluated counts fits; cached revisits are not refitted.
	ModelsEvaluated int
}

type fitted struct {
	model *arima.Model
	score float64
	err   error
}

type searcher struct {
	series *timeseries.Series
	cfg    *Config
	d, sd  int
	cache  *lru.Cache[arima.Config, fitted]
	result *Result
	best   fitted
}

// AutoARIMA chooses differencing orders with KPSS (and the seasonal
// autocorrelation) and then searches AR and MA orders minimising the
// configured criterion.
func AutoARIMA(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Criterion == "" {
		cfg.Criterion = AICc
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.Period < 2 {
		cfg.Period = 0
	}

	cache, err := lru.New[arima.Config, fitted](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	sd := 0
	if cfg.Period > 0 {
		sd = seasonalDifferencing(series, cfg.MaxSD, cfg.Period)
	}
	d := differencing(series, sd, cfg.Period, cfg.MaxD, cfg.Alpha)

	s := &searcher{
		series: series,
		cfg:    &cfg,
		d:      d,
		sd:     sd,
		cache:  cache,
		result: &Result{Criterion: cfg.Criterion},
		best:   fitted{score: math.Inf(1)},
	}
	if cfg.Stepwise {
		s.stepwise()
	} else {
		s.exhaustive()
	}

	if s.best.model == nil {
		return s.result, ErrNoModel
	}
	s.result.Model = s.best.model
	s.result.Config = s.best.model.Config
	s.result.Score = s.best.score
	return s.result, nil
}

// differencing picks d on the seasonally differenced series.
func differencing(series *timeseries.Series, sd, period, maxD int, alpha float64) int {
	current := series
	for range sd {
		current = current.SeasonalDiff(period)
	}
	if maxD <= 0 || current.Len() < 10 {
		return 0
	}
	return stats.NDiffs(current, maxD, alpha)
}

// seasonalDifferencing suggests one seasonal difference when the
// autocorrelation at the seasonal lag is strong.
func seasonalDifferencing(series *timeseries.Series, maxSD, period int) int {
	if maxSD < 1 || series.Len() < 2*period+2 {
		return 0
	}
	acf := stats.ACF(series, period)
	if len(acf) > period && math.Abs(acf[period]) > 0.5 {
		return 1
	}
	return 0
}

type arma struct {
	p, q, sp, sq int
}

func (s *searcher) config(sp arma) arima.Config {
	c := arima.Config{
		Order: arima.Order{P: sp.p, D: s.d, Q: sp.q},
	}
	if s.cfg.Period > 0 {
		c.Seasonal = arima.SeasonalOrder{P: sp.sp, D: s.sd, Q: sp.sq, S: s.cfg.Period}
	}
	if s.cfg.Drift {
		switch s.d + s.sd {
		case 0:
			c.Trend = arima.TrendConstant
		case 1:
			c.Trend = arima.TrendLinear
		}
	}
	return c
}

func (s *searcher) allowed(sp arma) bool {
	if sp.p < 0 || sp.p > s.cfg.MaxP || sp.q < 0 || sp.q > s.cfg.MaxQ {
		return false
	}
	if s.cfg.Period == 0 {
		return sp.sp == 0 && sp.sq == 0
	}
	return sp.sp >= 0 && sp.sp <= s.cfg.MaxSP && sp.sq >= 0 && sp.sq <= s.cfg.MaxSQ
}

// evaluate fits sp once; later calls are served from the cache. It reports
// whether sp improved on the best score so far.
func (s *searcher) evaluate(sp arma) bool {
	if !s.allowed(sp) {
		return false
	}
	key := s.config(sp)
	if _, ok := s.cache.Get(key); ok {
		return false
	}

	f := fitted{score: math.Inf(1)}
	model, err := arima.Fit(s.series, key)
	if err != nil {
		f.err = err
	} else {
		f.model = model
		f.score = s.cfg.Criterion.of(model)
		if math.IsNaN(f.score) {
			f.score = math.Inf(1)
		}
	}
	s.cache.Add(key, f)
	s.result.ModelsEvaluated++
	s.result.Candidates = append(s.result.Candidates, Candidate{Config: key, Score: f.score, Err: f.err})

	if f.model != nil && f.score < s.best.score {
		s.best = f
		return true
	}
	return false
}

func (s *searcher) stepwise() {
	starts := []arma{{0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}, {1, 1, 1, 1}, {2, 2, 1, 1}}
	bestARMA := arma{}
	for _, sp := range starts {
		if s.cfg.Period == 0 {
			sp.sp, sp.sq = 0, 0
		}
		if s.evaluate(sp) {
			bestARMA = sp
		}
	}

	for improved := true; improved; {
		improved = false
		b := bestARMA
		neighbors := []arma{
			{b.p + 1, b.q, b.sp, b.sq},
			{b.p - 1, b.q, b.sp, b.sq},
			{b.p, b.q + 1, b.sp, b.sq},
			{b.p, b.q - 1, b.sp, b.sq},
			{b.p + 1, b.q + 1, b.sp, b.sq},
			{b.p - 1, b.q - 1, b.sp, b.sq},
			{b.p, b.q, b.sp + 1, b.sq},
			{b.p, b.q, b.sp - 1, b.sq},
			{b.p, b.q, b.sp, b.sq + 1},
			{b.p, b.q, b.sp, b.sq - 1},
		}
		for _, sp := range neighbors {
			if s.evaluate(sp) {
				bestARMA = sp
				improved = true
			}
		}
	}
}

func (s *searcher) exhaustive() {
	maxSP, maxSQ := 0, 0
	if s.cfg.Period > 0 {
		maxSP, maxSQ = s.cfg.MaxSP, s.cfg.MaxSQ
	}
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.evaluate(arma{p, q, sp, sq})
				}
			}
		}
	}
}

// Ranked returns the successfully fitted candidates, best first.
func (r *Result) Ranked() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Err == nil {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})
	return out
}
