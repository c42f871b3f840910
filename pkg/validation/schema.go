package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
)

// ValidateProject performs schema validation on a loaded Project.
// It checks structural correctness before any input is read.
func ValidateProject(p *spec.Project) *Report {
	r := NewReport()

	validatePaths(p, r)
	validateAliases(p, r)
	validateYearIndex(p, r)
	validateAllocation(p, r)

	return r
}

func validatePaths(p *spec.Project, r *Report) {
	required := []struct {
		path  string
		value string
	}{
		{"inputs.state_totals", p.Inputs.StateTotals},
		{"inputs.genre_percent", p.Inputs.GenrePercent},
		{"outputs.state_genre", p.Outputs.StateGenre},
		{"outputs.state_year", p.Outputs.StateYear},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s must name a file", f.path),
				Path:     f.path,
				Expected: "non-empty path",
			})
		}
	}

	if p.Outputs.StateGenre != "" && p.Outputs.StateGenre == p.Outputs.StateYear {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "outputs.state_genre and outputs.state_year point at the same file",
			Path:        "outputs.state_year",
			ActualValue: p.Outputs.StateYear,
			Suggestions: []string{"Give each derived dataset its own file"},
		})
	}
}

func validateAliases(p *spec.Project, r *Report) {
	fields := []struct {
		name    string
		aliases []string
	}{
		{"state", p.Aliases.State},
		{"festival_count", p.Aliases.FestivalCount},
		{"genre", p.Aliases.Genre},
		{"percent", p.Aliases.Percent},
	}

	owner := map[string]string{}
	for _, f := range fields {
		for _, a := range f.aliases {
			key := strings.ToLower(strings.TrimSpace(a))
			if key == "" {
				r.AddError(Result{
					Level:   LevelSchema,
					Message: fmt.Sprintf("aliases.%s contains an empty header name", f.name),
					Path:    "aliases." + f.name,
				})
				continue
			}
			if prev, ok := owner[key]; ok && prev != f.name {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     fmt.Sprintf("header %q is an alias of both %s and %s", a, prev, f.name),
					Path:        "aliases." + f.name,
					ActualValue: a,
				})
				continue
			}
			owner[key] = f.name
		}
	}
}

func validateYearIndex(p *spec.Project, r *Report) {
	if len(p.YearIndex) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "year_index must contain at least one year",
			Path:     "year_index",
			Expected: "at least 1 entry",
		})
		return
	}

	seen := map[int]int{}
	for i, yf := range p.YearIndex {
		path := fmt.Sprintf("year_index[%d]", i)
		if first, dup := seen[yf.Year]; dup {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("year %d appears twice (entries %d and %d)", yf.Year, first, i),
				Path:        path + ".year",
				ActualValue: yf.Year,
			})
		}
		seen[yf.Year] = i

		if yf.Factor < 0 || math.IsNaN(yf.Factor) || math.IsInf(yf.Factor, 0) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("factor for %d must be a finite non-negative number", yf.Year),
				Path:        path + ".factor",
				ActualValue: yf.Factor,
				Expected:    ">= 0",
			})
		} else if yf.Factor > 10 {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("factor for %d is %.2fx the baseline", yf.Year, yf.Factor),
				Path:        path + ".factor",
				ActualValue: yf.Factor,
				Suggestions: []string{"Factors are multipliers of the baseline total, e.g. 0.85 for 85%"},
			})
		}
	}
}

func validateAllocation(p *spec.Project, r *Report) {
	switch p.Allocation.ZeroTotals {
	case spec.ZeroTotalsSkip, spec.ZeroTotalsEmit:
	default:
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown zero_totals policy %q", p.Allocation.ZeroTotals),
			Path:        "allocation.zero_totals",
			ActualValue: p.Allocation.ZeroTotals,
			Expected:    "skip | emit",
		})
	}

	switch p.Allocation.YearMethod {
	case spec.YearIndependent, spec.YearLargestRemainder:
	default:
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown year_method %q", p.Allocation.YearMethod),
			Path:        "allocation.year_method",
			ActualValue: p.Allocation.YearMethod,
			Expected:    "independent | largest_remainder",
		})
	}
}
