package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
	"github.com/MythicBat/Festival-Footprint/pkg/transform"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

type buildOptions struct {
	JSON   bool
	SQLite string
}

// written records one dataset that reached disk.
type written struct {
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
}

// compute loads the project and derives the selected datasets.
func compute(projectPath string, steps transform.Steps) (*transform.Output, error) {
	p, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	logger.Debug("project loaded",
		zap.String("dir", p.Dir),
		zap.String("state_totals", p.Inputs.StateTotals),
		zap.String("genre_percent", p.Inputs.GenrePercent),
		zap.Int("years", len(p.YearIndex)))

	out, err := transform.Run(p, steps)
	if err != nil {
		return nil, err
	}
	logFindings(out.Report)
	return out, nil
}

func logFindings(r *validation.Report) {
	if groups := r.Groups(); len(groups) > 0 {
		logger.Error("groups with errors", zap.Strings("groups", groups))
	}
	for _, w := range r.Warnings {
		logger.Warn(w.Message, zap.String("level", string(w.Level)), zap.String("path", w.Path))
	}
	for _, i := range r.Info {
		logger.Debug(i.Message, zap.String("level", string(i.Level)), zap.String("path", i.Path))
	}
}

// writeOutputs writes every derived dataset to its CSV file and, when
// sqlitePath is set, to the database as well.
func writeOutputs(ctx context.Context, out *transform.Output, sqlitePath string) ([]written, error) {
	var db *tabular.SQLiteSink
	if sqlitePath != "" {
		var err error
		db, err = tabular.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
	}

	done := []written{}
	for _, t := range out.Datasets() {
		if err := (tabular.CSVSink{Path: t.Path}).Write(ctx, t.Dataset); err != nil {
			return done, err
		}
		logger.Info("dataset written",
			zap.String("dataset", t.Dataset.Name),
			zap.String("path", t.Path),
			zap.Int("rows", len(t.Dataset.Rows)))
		done = append(done, written{Dataset: t.Dataset.Name, Path: t.Path, Rows: len(t.Dataset.Rows)})

		if db != nil {
			if err := db.Write(ctx, t.Dataset); err != nil {
				return done, err
			}
			logger.Info("dataset stored", zap.String("dataset", t.Dataset.Name), zap.String("sqlite", sqlitePath))
		}
	}
	return done, nil
}

func runGenre(ctx context.Context, projectPath string) error {
	out, err := compute(projectPath, transform.Steps{Genre: true})
	if err != nil {
		return err
	}
	if !out.Report.Valid {
		printValidationReport(out.Report)
		return out.Report.Err()
	}

	done, err := writeOutputs(ctx, out, out.Project.Outputs.SQLite)
	if err != nil {
		return err
	}
	printWritten(done)
	printStateGenreSummary(out.StateGenre)
	printWarnings(out.Report)
	return nil
}

func runYears(ctx context.Context, projectPath string) error {
	out, err := compute(projectPath, transform.Steps{Years: true})
	if err != nil {
		return err
	}
	if !out.Report.Valid {
		printValidationReport(out.Report)
		return out.Report.Err()
	}

	done, err := writeOutputs(ctx, out, out.Project.Outputs.SQLite)
	if err != nil {
		return err
	}
	printWritten(done)
	printStateYearSummary(out.StateYear)
	printWarnings(out.Report)
	return nil
}

func runBuild(ctx context.Context, projectPath string, opts buildOptions) error {
	out, err := compute(projectPath, transform.All)
	if err != nil {
		return err
	}
	if !out.Report.Valid {
		if opts.JSON {
			return errors.Join(encodeJSON(buildSummary(out, nil)), out.Report.Err())
		}
		printValidationReport(out.Report)
		return out.Report.Err()
	}

	sqlitePath := opts.SQLite
	if sqlitePath == "" {
		sqlitePath = out.Project.Outputs.SQLite
	}
	done, err := writeOutputs(ctx, out, sqlitePath)
	if err != nil {
		return err
	}

	if opts.JSON {
		return encodeJSON(buildSummary(out, done))
	}
	printWritten(done)
	printStateGenreSummary(out.StateGenre)
	printStateYearSummary(out.StateYear)
	printWarnings(out.Report)
	return nil
}

func runValidate(projectPath string) error {
	out, err := compute(projectPath, transform.All)
	if err != nil {
		return err
	}

	printValidationReport(out.Report)
	return out.Report.Err()
}

func buildSummary(out *transform.Output, done []written) map[string]any {
	summary := map[string]any{
		"run_id":     runID,
		"project":    out.Project.Dir,
		"outputs":    done,
		"validation": out.Report,
	}
	if out.Totals != nil {
		summary["baseline_total"] = out.Totals.Baseline()
	}
	if out.StateGenre != nil {
		summary["states"] = out.StateGenre.StateNames()
		summary["genres"] = out.StateGenre.Genres()
	}
	if out.StateYear != nil {
		summary["years"] = out.StateYear.Years
	}
	return summary
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
