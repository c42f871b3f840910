package transform

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MythicBat/Festival-Footprint/pkg/apportion"
	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

// StateYearOptions controls the state×year transform.
type StateYearOptions struct {
	Method spec.YearMethod
}

// StateShare is a state's fraction of the baseline national total.
type StateShare struct {
	State string  `json:"state"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// YearTotal summarises one year of the index.
type YearTotal struct {
	Year      int     `json:"year"`
	Factor    float64 `json:"factor"`
	National  int     `json:"national_total"`
	Allocated int     `json:"allocated_total"`
	Drift     int     `json:"drift"`
}

// StateYearRow is one output row.
type StateYearRow struct {
	Year  int    `json:"year"`
	State string `json:"state"`
	Count int    `json:"festival_count"`
}

// StateYearResult is the state×year dataset plus per-year totals.
type StateYearResult struct {
	Baseline int             `json:"baseline_total"`
	Method   spec.YearMethod `json:"method"`
	Shares   []StateShare    `json:"shares"`
	Years    []YearTotal     `json:"years"`
	Rows     []StateYearRow  `json:"rows"`
}

// StateYear scales the baseline national total by each year's factor and
// spreads it over states by their baseline share.
//
// National totals and, in the independent method, every state-year cell are
// rounded half-to-even on their own, so a year's cells need not add up to
// its national total. The difference is reported as drift rather than
// corrected. The largest_remainder method apportions each national total
// exactly instead.
func StateYear(totals *Totals, index []spec.YearFactor, opts StateYearOptions) (*StateYearResult, *validation.Report) {
	report := validation.NewReport()
	method := opts.Method
	if method == "" {
		method = spec.YearIndependent
	}

	baseline := totals.Baseline()
	res := &StateYearResult{
		Baseline: baseline,
		Method:   method,
		Shares:   []StateShare{},
		Years:    []YearTotal{},
		Rows:     []StateYearRow{},
	}
	if baseline <= 0 {
		report.AddError(validation.Result{
			Level:       validation.LevelAllocation,
			Message:     "baseline national total is 0; state shares are undefined",
			ActualValue: baseline,
			Expected:    "> 0",
		})
		return res, report
	}

	for _, s := range totals.States {
		res.Shares = append(res.Shares, StateShare{
			State: s.State,
			Count: s.Count,
			Share: float64(s.Count) / float64(baseline),
		})
	}

	for _, yf := range index {
		if yf.Factor < 0 {
			report.AddError(validation.Result{
				Level:       validation.LevelAllocation,
				Message:     fmt.Sprintf("%d: negative year factor", yf.Year),
				Group:       strconv.Itoa(yf.Year),
				ActualValue: yf.Factor,
				Expected:    ">= 0",
			})
			continue
		}

		national := roundBank(decimal.NewFromInt(int64(baseline)).Mul(decimal.NewFromFloat(yf.Factor)))
		cells, err := distribute(national, baseline, totals.States, method)
		if err != nil {
			report.AddError(validation.Result{
				Level:   validation.LevelAllocation,
				Message: fmt.Sprintf("%d: %v", yf.Year, err),
				Group:   strconv.Itoa(yf.Year),
			})
			continue
		}

		yt := YearTotal{Year: yf.Year, Factor: yf.Factor, National: national}
		for i, s := range totals.States {
			res.Rows = append(res.Rows, StateYearRow{Year: yf.Year, State: s.State, Count: cells[i]})
			yt.Allocated += cells[i]
		}
		yt.Drift = yt.Allocated - yt.National
		if yt.Drift != 0 {
			report.AddWarning(validation.Result{
				Level: validation.LevelAllocation,
				Message: fmt.Sprintf("%d: state cells sum to %d but the national total is %d (drift %+d)",
					yf.Year, yt.Allocated, yt.National, yt.Drift),
				Group:       strconv.Itoa(yf.Year),
				ActualValue: yt.Drift,
				Expected:    "0",
				Suggestions: []string{"Set allocation.year_method: largest_remainder to conserve national totals"},
			})
		}
		res.Years = append(res.Years, yt)
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.State < b.State
	})
	return res, report
}

// distribute returns one count per state, in totals order.
func distribute(national, baseline int, states []StateTotal, method spec.YearMethod) ([]int, error) {
	cells := make([]int, len(states))

	if method == spec.YearLargestRemainder {
		weights := make([]apportion.Weight, len(states))
		for i, s := range states {
			weights[i] = apportion.Weight{Label: s.State, Value: float64(s.Count) / float64(baseline)}
		}
		r, err := apportion.Allocate(national, weights)
		if err != nil {
			return nil, err
		}
		for i, s := range r.Shares {
			cells[i] = s.Count
		}
		return cells, nil
	}

	n := decimal.NewFromInt(int64(national))
	b := decimal.NewFromInt(int64(baseline))
	for i, s := range states {
		// national * (count / baseline), kept exact until the final rounding.
		cells[i] = roundBank(n.Mul(decimal.NewFromInt(int64(s.Count))).Div(b))
	}
	return cells, nil
}

func roundBank(d decimal.Decimal) int {
	return int(d.RoundBank(0).IntPart())
}

// Dataset returns the rows as the state_year output table.
func (r *StateYearResult) Dataset() *tabular.Dataset {
	ds := &tabular.Dataset{
		Name: "state_year",
		Columns: []tabular.Column{
			{Name: "year", Kind: tabular.KindInteger},
			{Name: "state", Kind: tabular.KindText},
			{Name: "festival_count", Kind: tabular.KindInteger},
		},
		Rows: make([][]string, len(r.Rows)),
	}
	for i, row := range r.Rows {
		ds.Rows[i] = []string{strconv.Itoa(row.Year), row.State, strconv.Itoa(row.Count)}
	}
	return ds
}

// StateNames returns the states with a baseline share, sorted.
func (r *StateYearResult) StateNames() []string {
	return distinct(r.Shares, func(s StateShare) string { return s.State })
}
