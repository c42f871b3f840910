package main

import (
	"fmt"
	"strings"

	"github.com/MythicBat/Festival-Footprint/pkg/transform"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(e)
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			printResult(w)
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(res validation.Result) {
	fmt.Printf("  [%s] %s\n", res.Level, res.Message)
	if res.Path != "" {
		if res.ActualValue != nil {
			fmt.Printf("    -> %s = %v\n", res.Path, res.ActualValue)
		} else {
			fmt.Printf("    -> %s\n", res.Path)
		}
	}
	if res.Expected != "" {
		fmt.Printf("    expected: %s\n", res.Expected)
	}
	for _, s := range res.Suggestions {
		fmt.Printf("    * %s\n", s)
	}
}

// printWarnings prints the report after a successful run, but only when
// there is something worth reading.
func printWarnings(r *validation.Report) {
	if len(r.Warnings) == 0 {
		return
	}
	fmt.Println()
	printValidationReport(r)
}

func printWritten(done []written) {
	for _, w := range done {
		fmt.Printf("Wrote %s (%d rows)\n", w.Path, w.Rows)
	}
}

func printStateGenreSummary(r *transform.StateGenreResult) {
	fmt.Println("States:", strings.Join(r.StateNames(), ", "))
	fmt.Println("Genres:", strings.Join(r.Genres(), ", "))
}

func printStateYearSummary(r *transform.StateYearResult) {
	fmt.Printf("Baseline total (FY22-23): %d\n", r.Baseline)
	fmt.Println("States:", strings.Join(r.StateNames(), ", "))
	fmt.Println()
	printYearTable(r.Years)
}

func printYearTable(years []transform.YearTotal) {
	fmt.Printf("%-6s %8s %10s %10s %6s\n", "Year", "Factor", "National", "Allocated", "Drift")
	fmt.Printf("%-6s %8s %10s %10s %6s\n", "------", "--------", "----------", "----------", "------")
	for _, y := range years {
		drift := "-"
		if y.Drift != 0 {
			drift = fmt.Sprintf("%+d", y.Drift)
		}
		fmt.Printf("%-6d %8.2f %10d %10d %6s\n", y.Year, y.Factor, y.National, y.Allocated, drift)
	}
}
