package spec

// Project is the top-level description of one festival-statistics build.
type Project struct {
	SpecVersion string         `yaml:"spec_version" json:"spec_version"`
	Inputs      Inputs         `yaml:"inputs" json:"inputs"`
	Outputs     Outputs        `yaml:"outputs" json:"outputs"`
	Aliases     Aliases        `yaml:"aliases" json:"aliases"`
	YearIndex   []YearFactor   `yaml:"year_index" json:"year_index"`
	Allocation  AllocationOpts `yaml:"allocation" json:"allocation"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-" json:"dir"`
}

type Inputs struct {
	StateTotals  string `yaml:"state_totals" json:"state_totals"`
	GenrePercent string `yaml:"genre_percent" json:"genre_percent"`
}

type Outputs struct {
	StateGenre string `yaml:"state_genre" json:"state_genre"`
	StateYear  string `yaml:"state_year" json:"state_year"`
	SQLite     string `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
}

// Aliases lists the accepted header spellings for each logical column.
// Empty lists fall back to the defaults.
type Aliases struct {
	State         []string `yaml:"state,omitempty" json:"state,omitempty"`
	FestivalCount []string `yaml:"festival_count,omitempty" json:"festival_count,omitempty"`
	Genre         []string `yaml:"genre,omitempty" json:"genre,omitempty"`
	Percent       []string `yaml:"percent,omitempty" json:"percent,omitempty"`
}

// YearFactor scales the baseline national total for one year.
type YearFactor struct {
	Year   int     `yaml:"year" json:"year"`
	Factor float64 `yaml:"factor" json:"factor"`
}

type AllocationOpts struct {
	ZeroTotals ZeroTotalPolicy `yaml:"zero_totals" json:"zero_totals"`
	YearMethod YearMethod      `yaml:"year_method" json:"year_method"`
}

// ZeroTotalPolicy decides what happens to a state whose festival total is 0.
type ZeroTotalPolicy string

const (
	ZeroTotalsSkip ZeroTotalPolicy = "skip"
	ZeroTotalsEmit ZeroTotalPolicy = "emit"
)

// YearMethod decides how a year's national total is spread over states.
type YearMethod string

const (
	// YearIndependent rounds every state-year cell on its own; per-year sums
	// can drift from the national total.
	YearIndependent YearMethod = "independent"
	// YearLargestRemainder apportions the national total exactly.
	YearLargestRemainder YearMethod = "largest_remainder"
)
