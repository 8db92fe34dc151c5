package report

import (
	"encoding/json"
	"io"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/timeseries"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

// Run wraps one command's result with a unique id and timestamp.
type Run struct {
	ID      uuid.UUID `json:"run_id"`
	Command string    `json:"command"`
	Created time.Time `json:"created"`
	Result  any       `json:"result"`
}

// NewRun stamps result with a fresh random id.
func NewRun(command string, result any) *Run {
	return &Run{
		ID:      uuid.New(),
		Command: command,
		Created: time.Now().UTC(),
		Result:  result,
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ParamDoc is one estimate with its interval.
type ParamDoc struct {
	Name   string `json:"name"`
	Value  Float  `json:"value"`
	StdErr Float  `json:"std_err"`
	PValue Float  `json:"p_value"`
	Lower  Float  `json:"lower"`
	Upper  Float  `json:"upper"`
}

// ModelDoc describes a fitted model.
type ModelDoc struct {
	Model  string     `json:"model"`
	NObs   int        `json:"n_obs"`
	LogLik Float      `json:"log_likelihood"`
	AIC    Float      `json:"aic"`
	AICc   Float      `json:"aicc"`
	BIC    Float      `json:"bic"`
	Sigma2 Float      `json:"sigma2"`
	Alpha  float64    `json:"alpha"`
	Params []ParamDoc `json:"params"`
}

// NewModelDoc describes model with 1-alpha parameter intervals.
func NewModelDoc(model *arima.Model, alpha float64) (*ModelDoc, error) {
	intervals, err := model.ConfInt(alpha)
	if err != nil {
		return nil, err
	}
	doc := &ModelDoc{
		Model:  model.Config.String(),
		NObs:   model.NObs,
		LogLik: Float(model.LogLik),
		AIC:    Float(model.AIC),
		AICc:   Float(model.AICc),
		BIC:    Float(model.BIC),
		Sigma2: Float(model.Sigma2),
		Alpha:  alpha,
	}
	for i, p := range model.Params() {
		doc.Params = append(doc.Params, ParamDoc{
			Name:   p.Name,
			Value:  Float(p.Value),
			StdErr: Float(p.StdErr),
			PValue: Float(p.PValue()),
			Lower:  Float(intervals[i].Lower),
			Upper:  Float(intervals[i].Upper),
		})
	}
	return doc, nil
}

// BandDoc is one confidence band.
type BandDoc struct {
	Level float64 `json:"level"`
	Lower []Float `json:"lower"`
	Upper []Float `json:"upper"`
}

// ForecastDoc is a forecast window.
type ForecastDoc struct {
	Periods []timeseries.Period `json:"periods"`
	Mean    []Float             `json:"mean"`
	StdErr  []Float             `json:"std_err"`
	Bands   []BandDoc           `json:"bands"`
}

// NewForecastDoc describes fc with bands in ascending level order.
func NewForecastDoc(fc *arima.Forecast) *ForecastDoc {
	doc := &ForecastDoc{
		Periods: slices.Clone(fc.Periods),
		Mean:    floats(fc.Mean),
		StdErr:  floats(fc.StdErr),
	}
	for _, level := range fc.Levels() {
		iv := fc.Intervals[level]
		doc.Bands = append(doc.Bands, BandDoc{Level: level, Lower: floats(iv.Lower), Upper: floats(iv.Upper)})
	}
	return doc
}

// LagTestDoc is one Ljung-Box result.
type LagTestDoc struct {
	Lag       int   `json:"lag"`
	Statistic Float `json:"statistic"`
	PValue    Float `json:"p_value"`
	DOF       int   `json:"dof"`
}

// DiagnosticsDoc summarises residual diagnostics.
type DiagnosticsDoc struct {
	LjungBox     []LagTestDoc `json:"ljung_box"`
	ShapiroW     *Float       `json:"shapiro_w,omitempty"`
	ShapiroP     *Float       `json:"shapiro_p,omitempty"`
	DurbinWatson Float        `json:"durbin_watson"`
	ACF          []Float      `json:"acf,omitempty"`
	PACF         []Float      `json:"pacf,omitempty"`
	Adequate     bool         `json:"adequate"`
}

// NewDiagnosticsDoc describes r, judging adequacy at alpha.
func NewDiagnosticsDoc(r *diagnostics.Report, alpha float64) *DiagnosticsDoc {
	doc := &DiagnosticsDoc{
		DurbinWatson: Float(r.DurbinWatson),
		Adequate:     r.Adequate(alpha),
	}
	for _, lt := range r.LjungBox {
		doc.LjungBox = append(doc.LjungBox, LagTestDoc{Lag: lt.Lag, Statistic: Float(lt.Statistic), PValue: Float(lt.PValue), DOF: lt.DOF})
	}
	if r.Normality != nil {
		w, p := Float(r.Normality.W), Float(r.Normality.PValue)
		doc.ShapiroW, doc.ShapiroP = &w, &p
	}
	if r.ACF != nil {
		doc.ACF = floats(r.ACF.Values)
	}
	if r.PACF != nil {
		doc.PACF = floats(r.PACF.Values)
	}
	return doc
}

// CandidateRow is one order tried by the order search.
type CandidateRow struct {
	Model string `json:"model"`
	Score Float  `json:"score"`
	Err   string `json:"error,omitempty"`
}

// candidateRows lists successful fits best first, then failures in
// evaluation order.
func candidateRows(res *autoarima.Result) []CandidateRow {
	var rows []CandidateRow
	for _, c := range res.Ranked() {
		rows = append(rows, CandidateRow{Model: c.Config.String(), Score: Float(c.Score)})
	}
	for _, c := range res.Candidates {
		if c.Err != nil {
			rows = append(rows, CandidateRow{Model: c.Config.String(), Score: Float(c.Score), Err: c.Err.Error()})
		}
	}
	return rows
}

// SelectionDoc describes an order search.
type SelectionDoc struct {
	Best      string         `json:"best"`
	Criterion string         `json:"criterion"`
	Score     Float          `json:"score"`
	Fits      int            `json:"fits"`
	Ranked    []CandidateRow `json:"candidates"`
}

// NewSelectionDoc describes res.
func NewSelectionDoc(res *autoarima.Result) *SelectionDoc {
	return &SelectionDoc{
		Best:      res.Config.String(),
		Criterion: string(res.Criterion),
		Score:     Float(res.Score),
		Fits:      res.ModelsEvaluated,
		Ranked:    candidateRows(res),
	}
}
