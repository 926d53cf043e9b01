package abcinput

import (
	"testing"

	"github.com/y-guang/eam/internal/tablex"
)

func TestBuildAlignsParamsAndStats(t *testing.T) {
	condRows := []tablex.Row{
		{"condition_idx": int64(0), "V": 1.0, "A": 1.0},
		{"condition_idx": int64(1), "V": 2.0, "A": 1.0},
		{"condition_idx": int64(2), "V": 3.0, "A": 1.0},
	}
	condCols := tablex.ColumnOrder(condRows, []string{"condition_idx", "V", "A"})
	condTable := tablex.BuildTable(condRows, condCols)

	statRows := []tablex.Row{
		{"condition_idx": int64(0), "mean_rt": 0.9},
		{"condition_idx": int64(1), "mean_rt": 0.6},
		{"condition_idx": int64(2), "mean_rt": 0.4},
	}
	statCols := tablex.ColumnOrder(statRows, []string{"condition_idx", "mean_rt"})
	statTable := tablex.BuildTable(statRows, statCols)

	in, err := Build(condTable, []string{"V", "A"}, statTable, []string{"mean_rt"}, []string{"condition_idx"},
		map[string]float64{"mean_rt": 0.5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if in.NRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", in.NRows())
	}
	pr, pc := in.Params.Dims()
	if pr != 3 || pc != 2 {
		t.Fatalf("unexpected param dims: %d x %d", pr, pc)
	}
	sr, sc := in.Stats.Dims()
	if sr != 3 || sc != 1 {
		t.Fatalf("unexpected stat dims: %d x %d", sr, sc)
	}
	if in.Target[0] != 0.5 {
		t.Fatalf("expected target 0.5, got %v", in.Target[0])
	}
}

func TestBuildUnmatchedConditionErrors(t *testing.T) {
	condRows := []tablex.Row{
		{"condition_idx": int64(0), "V": 1.0},
		{"condition_idx": int64(1), "V": 2.0},
	}
	condTable := tablex.BuildTable(condRows, tablex.ColumnOrder(condRows, []string{"condition_idx", "V"}))
	statRows := []tablex.Row{
		{"condition_idx": int64(0), "mean_rt": 0.5},
	}
	statTable := tablex.BuildTable(statRows, tablex.ColumnOrder(statRows, []string{"condition_idx", "mean_rt"}))

	_, err := Build(condTable, []string{"V"}, statTable, []string{"mean_rt"}, []string{"condition_idx"},
		map[string]float64{"mean_rt": 0.5})
	if err == nil {
		t.Fatalf("expected error when condition 1 has no matching stats row")
	}
}

func TestBuildMissingTargetErrors(t *testing.T) {
	condRows := []tablex.Row{{"condition_idx": int64(0), "V": 1.0}}
	condTable := tablex.BuildTable(condRows, tablex.ColumnOrder(condRows, []string{"condition_idx", "V"}))
	statRows := []tablex.Row{{"condition_idx": int64(0), "mean_rt": 0.5}}
	statTable := tablex.BuildTable(statRows, tablex.ColumnOrder(statRows, []string{"condition_idx", "mean_rt"}))

	_, err := Build(condTable, []string{"V"}, statTable, []string{"mean_rt"}, []string{"condition_idx"}, map[string]float64{})
	if err == nil {
		t.Fatalf("expected error for missing target")
	}
}
