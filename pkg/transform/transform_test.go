package transform

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
)

func australiaTotals() *Totals {
	return &Totals{States: []StateTotal{
		{"New South Wales", 312},
		{"Victoria", 287},
		{"Queensland", 201},
		{"Western Australia", 118},
		{"South Australia", 96},
		{"Tasmania", 54},
		{"Australian Capital Territory", 31},
		{"Northern Territory", 27},
	}}
}

func nationalGenres() *GenreTable {
	return &GenreTable{Mode: ModeNational, Rows: []GenreShare{
		{Genre: "Contemporary Music", Percent: 38.5},
		{Genre: "Multi-arts", Percent: 21.0},
		{Genre: "Classical Music", Percent: 6.5},
		{Genre: "Dance", Percent: 4.0},
		{Genre: "Theatre", Percent: 8.5},
		{Genre: "Visual Arts", Percent: 7.5},
		{Genre: "Literature", Percent: 5.0},
		{Genre: "Film", Percent: 9.0},
	}}
}

func countsFor(rows []StateGenreRow, state string) map[string]int {
	out := map[string]int{}
	for _, r := range rows {
		if r.State == state {
			out[r.Genre] = r.Count
		}
	}
	return out
}

func TestStateGenreNational(t *testing.T) {
	res, report := StateGenre(australiaTotals(), nationalGenres(), StateGenreOptions{ZeroTotals: spec.ZeroTotalsSkip})
	if !report.Valid {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if len(res.Rows) != 64 {
		t.Fatalf("rows = %d, want 64", len(res.Rows))
	}

	wantTas := map[string]int{
		"Contemporary Music": 21, "Multi-arts": 11, "Classical Music": 3, "Dance": 2,
		"Theatre": 5, "Visual Arts": 4, "Literature": 3, "Film": 5,
	}
	if diff := cmp.Diff(wantTas, countsFor(res.Rows, "Tasmania")); diff != "" {
		t.Errorf("Tasmania mismatch (-want +got):\n%s", diff)
	}
	wantNT := map[string]int{
		"Contemporary Music": 10, "Multi-arts": 6, "Classical Music": 2, "Dance": 1,
		"Theatre": 2, "Visual Arts": 2, "Literature": 1, "Film": 3,
	}
	if diff := cmp.Diff(wantNT, countsFor(res.Rows, "Northern Territory")); diff != "" {
		t.Errorf("Northern Territory mismatch (-want +got):\n%s", diff)
	}

	// Every state's genres add up to its total.
	for _, st := range australiaTotals().States {
		sum := 0
		for _, n := range countsFor(res.Rows, st.State) {
			sum += n
		}
		if sum != st.Count {
			t.Errorf("%s: genres sum to %d, want %d", st.State, sum, st.Count)
		}
	}
}

func TestStateGenreBroadcastIsIdentical(t *testing.T) {
	res, _ := StateGenre(australiaTotals(), nationalGenres(), StateGenreOptions{})
	if len(res.States) != 8 {
		t.Fatalf("states = %d, want 8", len(res.States))
	}

	weightsOf := func(a StateAllocation) []float64 {
		out := make([]float64, len(a.Result.Shares))
		for i, s := range a.Result.Shares {
			out[i] = s.Weight
		}
		return out
	}
	first := weightsOf(res.States[0])
	for _, a := range res.States[1:] {
		if diff := cmp.Diff(first, weightsOf(a)); diff != "" {
			t.Errorf("%s weights differ from %s:\n%s", a.State, res.States[0].State, diff)
		}
		if a.Convention != "percentages" {
			t.Errorf("%s convention = %q, want percentages", a.State, a.Convention)
		}
	}
}

func TestStateGenreRowsSorted(t *testing.T) {
	res, _ := StateGenre(australiaTotals(), nationalGenres(), StateGenreOptions{})
	for i := 1; i < len(res.Rows); i++ {
		a, b := res.Rows[i-1], res.Rows[i]
		if a.State > b.State || (a.State == b.State && a.Genre >= b.Genre) {
			t.Fatalf("rows out of order at %d: %+v then %+v", i, a, b)
		}
	}
	if res.Rows[0].State != "Australian Capital Territory" || res.Rows[0].Genre != "Classical Music" {
		t.Errorf("first row = %+v", res.Rows[0])
	}

	wantStates := australiaTotals().Names()
	if diff := cmp.Diff(wantStates, res.StateNames()); diff != "" {
		t.Errorf("StateNames mismatch (-want +got):\n%s", diff)
	}
	if len(res.Genres()) != 8 {
		t.Errorf("genres = %d, want 8", len(res.Genres()))
	}
}

func TestStateGenrePerState(t *testing.T) {
	totals := &Totals{States: []StateTotal{{"Victoria", 7}, {"Tasmania", 10}, {"Nowhere", 0}}}
	genres := &GenreTable{Mode: ModePerState, Rows: []GenreShare{
		{State: "Victoria", Genre: "Music", Percent: 50},
		{State: "Victoria", Genre: "Arts", Percent: 30},
		{State: "Victoria", Genre: "Food", Percent: 20},
		{State: "Tasmania", Genre: "Music", Percent: 2},
		{State: "Tasmania", Genre: "Arts", Percent: 2},
		{State: "Nowhere", Genre: "Music", Percent: 1},
		{State: "Atlantis", Genre: "Music", Percent: 1},
	}}

	res, report := StateGenre(totals, genres, StateGenreOptions{ZeroTotals: spec.ZeroTotalsSkip})
	if !report.Valid {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	want := []StateGenreRow{
		{"Tasmania", "Arts", 5},
		{"Tasmania", "Music", 5},
		{"Victoria", "Arts", 2},
		{"Victoria", "Food", 1},
		{"Victoria", "Music", 4},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	// Atlantis (no total) and Nowhere (zero total) are reported as info.
	if len(report.Info) != 3 {
		t.Errorf("info = %d, want 3: %v", len(report.Info), report.Info)
	}
}

func TestStateGenreZeroTotalsEmit(t *testing.T) {
	totals := &Totals{States: []StateTotal{{"Victoria", 0}}}
	res, report := StateGenre(totals, nationalGenres(), StateGenreOptions{ZeroTotals: spec.ZeroTotalsEmit})
	if !report.Valid {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if len(res.Rows) != 8 {
		t.Fatalf("rows = %d, want 8", len(res.Rows))
	}
	for _, r := range res.Rows {
		if r.Count != 0 {
			t.Errorf("%s count = %d, want 0", r.Genre, r.Count)
		}
	}
}

func TestStateGenreBadPercentagesReported(t *testing.T) {
	totals := &Totals{States: []StateTotal{{"Victoria", 7}, {"Tasmania", 4}}}
	genres := &GenreTable{Mode: ModePerState, Rows: []GenreShare{
		{State: "Victoria", Genre: "Music", Percent: 0},
		{State: "Victoria", Genre: "Arts", Percent: 0},
		{State: "Tasmania", Genre: "Music", Percent: 1},
	}}
	res, report := StateGenre(totals, genres, StateGenreOptions{})
	if report.Valid {
		t.Fatal("expected an error for a zero-sum state")
	}
	if diff := cmp.Diff([]string{"Victoria"}, report.Groups()); diff != "" {
		t.Errorf("error groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]StateGenreRow{{"Tasmania", "Music", 4}}, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStateGenreOddNationalSumWarns(t *testing.T) {
	genres := &GenreTable{Mode: ModeNational, Rows: []GenreShare{
		{Genre: "Music", Percent: 3},
		{Genre: "Arts", Percent: 1},
	}}
	res, report := StateGenre(&Totals{States: []StateTotal{{"Victoria", 8}}}, genres, StateGenreOptions{})
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(report.Warnings))
	}
	want := []StateGenreRow{{"Victoria", "Arts", 2}, {"Victoria", "Music", 6}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStateGenreDataset(t *testing.T) {
	res := &StateGenreResult{Rows: []StateGenreRow{{"Tasmania", "Dance", 2}}}
	ds := res.Dataset()
	if ds.Name != "state_genre" {
		t.Errorf("name = %q", ds.Name)
	}
	if diff := cmp.Diff([]string{"state", "genre", "count"}, ds.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"Tasmania", "Dance", "2"}}, ds.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStateTotals(t *testing.T) {
	in := "State_Territory,Festival_Count\nVictoria,287\nTasmania,oops\nVictoria,3\n,9\nQueensland,-4\n"
	tab, err := tabular.Read(strings.NewReader(in), TotalsSchema(spec.DefaultAliases()))
	if err != nil {
		t.Fatal(err)
	}
	totals, report := ParseStateTotals(tab)

	want := []StateTotal{{"Victoria", 290}, {"Tasmania", 0}}
	if diff := cmp.Diff(want, totals.States); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	if len(report.Errors) != 1 || report.Errors[0].Group != "Queensland" {
		t.Errorf("errors = %v, want one for Queensland", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Errorf("warnings = %d, want 2 (duplicate, missing state)", len(report.Warnings))
	}
	if len(report.Info) != 1 {
		t.Errorf("info = %d, want 1 coercion", len(report.Info))
	}
}

func TestParseGenrePercentsModes(t *testing.T) {
	a := spec.DefaultAliases()

	tab, err := tabular.Read(strings.NewReader("Genre,Percentage\nDance,4\nFilm,9%\nDance,1\n"), GenreSchema(a))
	if err != nil {
		t.Fatal(err)
	}
	g, report := ParseGenrePercents(tab)
	if g.Mode != ModeNational {
		t.Errorf("mode = %q, want national", g.Mode)
	}
	want := []GenreShare{{Genre: "Dance", Percent: 5}, {Genre: "Film", Percent: 9}}
	if diff := cmp.Diff(want, g.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(report.Warnings))
	}

	tab, err = tabular.Read(strings.NewReader("state,genre,percent\nVictoria,Dance,40\nVictoria,Film,60\n"), GenreSchema(a))
	if err != nil {
		t.Fatal(err)
	}
	g, _ = ParseGenrePercents(tab)
	if g.Mode != ModePerState {
		t.Errorf("mode = %q, want per_state", g.Mode)
	}
	if len(g.Rows) != 2 || g.Rows[1].State != "Victoria" {
		t.Errorf("rows = %+v", g.Rows)
	}
}

func TestLoadExampleProject(t *testing.T) {
	p, err := spec.LoadProject("../../examples/australia")
	if err != nil {
		t.Fatal(err)
	}
	totals, report, err := LoadStateTotals(p.Inputs.StateTotals, p.Aliases)
	if err != nil {
		t.Fatalf("LoadStateTotals: %v", err)
	}
	if !report.Valid || len(report.Warnings) != 0 {
		t.Errorf("unexpected findings: %v %v", report.Errors, report.Warnings)
	}
	if totals.Baseline() != 1126 {
		t.Errorf("baseline = %d, want 1126", totals.Baseline())
	}

	genres, _, err := LoadGenrePercents(p.Inputs.GenrePercent, p.Aliases)
	if err != nil {
		t.Fatalf("LoadGenrePercents: %v", err)
	}
	if genres.Mode != ModeNational || len(genres.Rows) != 8 {
		t.Errorf("genres = %s with %d rows, want national with 8", genres.Mode, len(genres.Rows))
	}
}

func TestLoadStateTotalsMissingColumn(t *testing.T) {
	_, _, err := LoadStateTotals("../../examples/australia/data/festival_genres_percent.csv", spec.DefaultAliases())
	if err == nil {
		t.Fatal("expected an error for a file without state/count columns")
	}
	if !strings.Contains(err.Error(), "no column for state") {
		t.Errorf("err = %v", err)
	}
}
