package transform

import (
	"fmt"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

// Steps selects which datasets Run derives.
type Steps struct {
	Genre bool
	Years bool
}

// All derives both datasets.
var All = Steps{Genre: true, Years: true}

// Output is everything one run produced. StateGenre and StateYear are nil
// for steps that were not selected or could not start.
type Output struct {
	Project    *spec.Project      `json:"project"`
	Totals     *Totals            `json:"totals,omitempty"`
	Genres     *GenreTable        `json:"genres,omitempty"`
	StateGenre *StateGenreResult  `json:"state_genre,omitempty"`
	StateYear  *StateYearResult   `json:"state_year,omitempty"`
	Report     *validation.Report `json:"validation"`
}

// Run validates the project, loads its inputs and derives the selected
// datasets. Findings from every stage are merged into Output.Report. An
// error is returned only when an input cannot be read; a project that fails
// schema validation yields an Output with no datasets.
func Run(p *spec.Project, steps Steps) (*Output, error) {
	out := &Output{Project: p, Report: validation.ValidateProject(p)}
	if !out.Report.Valid {
		return out, nil
	}

	totals, report, err := LoadStateTotals(p.Inputs.StateTotals, p.Aliases)
	if err != nil {
		return out, fmt.Errorf("loading state totals: %w", err)
	}
	out.Totals = totals
	out.Report.Merge(report)

	if steps.Genre {
		genres, report, err := LoadGenrePercents(p.Inputs.GenrePercent, p.Aliases)
		if err != nil {
			return out, fmt.Errorf("loading genre percentages: %w", err)
		}
		out.Genres = genres
		out.Report.Merge(report)

		res, report := StateGenre(totals, genres, StateGenreOptions{ZeroTotals: p.Allocation.ZeroTotals})
		out.StateGenre = res
		out.Report.Merge(report)
	}

	if steps.Years {
		res, report := StateYear(totals, p.YearIndex, StateYearOptions{Method: p.Allocation.YearMethod})
		out.StateYear = res
		out.Report.Merge(report)
	}
	return out, nil
}

// Datasets returns the derived tables paired with their configured CSV
// paths, in write order.
func (o *Output) Datasets() []Target {
	var out []Target
	if o.StateGenre != nil {
		out = append(out, Target{Path: o.Project.Outputs.StateGenre, Dataset: o.StateGenre.Dataset()})
	}
	if o.StateYear != nil {
		out = append(out, Target{Path: o.Project.Outputs.StateYear, Dataset: o.StateYear.Dataset()})
	}
	return out
}

// Target is a dataset and the CSV file it belongs in.
type Target struct {
	Path    string
	Dataset *tabular.Dataset
}
