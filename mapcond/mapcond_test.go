package mapcond

import (
	"testing"

	"github.com/y-guang/eam/formula"
	"github.com/y-guang/eam/internal/tablex"
	"github.com/y-guang/eam/noisefactory"
	"github.com/y-guang/eam/simconfig"
	"github.com/y-guang/eam/simrun"
)

func runSmallSim(t *testing.T) *simconfig.Config {
	t.Helper()
	cfg := &simconfig.Config{
		Model:               "ddm",
		NConditions:         4,
		NTrialsPerCondition: 3,
		NItems:              1,
		MaxReached:          1,
		MaxT:                2,
		Dt:                  0.01,
		NoiseMechanism:      "add",
		RandSeed:            11,
		NConditionsPerChunk: 2,
		ItemFormulas: []formula.Binding{
			{Name: "V", Expr: formula.Const{2}},
			{Name: "A", Expr: formula.Const{1}},
		},
		NoiseFactory: noisefactory.Gaussian("Sigma"),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func TestMapByConditionCountsRows(t *testing.T) {
	cfg := runSmallSim(t)
	out, err := simrun.Run(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	ds, err := out.OpenDataset()
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}

	counts, err := MapByCondition(ds, func(condIdx int, rows []tablex.Row) (tablex.Row, error) {
		return tablex.Row{"condition_idx": int64(condIdx), "n": int64(len(rows))}, nil
	}, Options{})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(counts) == 0 {
		t.Fatalf("expected at least one condition result")
	}
	var total int64
	for _, r := range counts {
		total += r["n"].(int64)
	}
	maxPossible := int64(cfg.NConditions * cfg.NTrialsPerCondition)
	if total == 0 || total > maxPossible {
		t.Fatalf("expected between 1 and %d total crossings, got %d", maxPossible, total)
	}
}
