package spec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the file LoadProject looks for in a project directory.
const ProjectFile = "festivals.yaml"

// Default returns the built-in project: the FY2022-23 data files under data/
// and the 2016-2023 year index.
func Default() *Project {
	return &Project{
		SpecVersion: "0.1.0",
		Inputs: Inputs{
			StateTotals:  "data/festivals_by_state_2022_23.csv",
			GenrePercent: "data/festival_genres_percent.csv",
		},
		Outputs: Outputs{
			StateGenre: "data/festivals_by_state_genre.csv",
			StateYear:  "data/festivals_by_state_year.csv",
		},
		Aliases: DefaultAliases(),
		YearIndex: []YearFactor{
			{Year: 2016, Factor: 0.85},
			{Year: 2017, Factor: 0.90},
			{Year: 2018, Factor: 0.96},
			{Year: 2019, Factor: 1.00},
			{Year: 2020, Factor: 0.45},
			{Year: 2021, Factor: 0.60},
			{Year: 2022, Factor: 0.85},
			{Year: 2023, Factor: 1.00},
		},
		Allocation: AllocationOpts{
			ZeroTotals: ZeroTotalsSkip,
			YearMethod: YearIndependent,
		},
	}
}

// DefaultAliases returns the recognised header spellings, most specific first.
func DefaultAliases() Aliases {
	return Aliases{
		State:         []string{"state_territory", "state"},
		FestivalCount: []string{"festival_count", "count"},
		Genre:         []string{"genre"},
		Percent:       []string{"percent", "percentage"},
	}
}

// Load reads a project from a YAML file, overlaying it on Default.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	// Sequences in the file replace the defaults; mappings overlay them.
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing project YAML: %w", err)
	}

	p.fillAliases()
	p.resolve(filepath.Dir(path))
	return p, nil
}

// LoadProject loads the project in projectDir. It reads festivals.yaml when
// present and otherwise uses Default with paths relative to projectDir.
func LoadProject(projectDir string) (*Project, error) {
	path := filepath.Join(projectDir, ProjectFile)
	p, err := Load(path)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	p = Default()
	p.resolve(projectDir)
	return p, nil
}

func (p *Project) fillAliases() {
	def := DefaultAliases()
	if len(p.Aliases.State) == 0 {
		p.Aliases.State = def.State
	}
	if len(p.Aliases.FestivalCount) == 0 {
		p.Aliases.FestivalCount = def.FestivalCount
	}
	if len(p.Aliases.Genre) == 0 {
		p.Aliases.Genre = def.Genre
	}
	if len(p.Aliases.Percent) == 0 {
		p.Aliases.Percent = def.Percent
	}
}

func (p *Project) resolve(dir string) {
	p.Dir = dir
	p.Inputs.StateTotals = join(dir, p.Inputs.StateTotals)
	p.Inputs.GenrePercent = join(dir, p.Inputs.GenrePercent)
	p.Outputs.StateGenre = join(dir, p.Outputs.StateGenre)
	p.Outputs.StateYear = join(dir, p.Outputs.StateYear)
	p.Outputs.SQLite = join(dir, p.Outputs.SQLite)
}

func join(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
