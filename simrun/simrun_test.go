package simrun

import (
	"path/filepath"
	"testing"

	"github.com/y-guang/eam/formula"
	"github.com/y-guang/eam/noisefactory"
	"github.com/y-guang/eam/simconfig"
)

func testConfig() *simconfig.Config {
	return &simconfig.Config{
		Model:               "ddm",
		NConditions:         3,
		NTrialsPerCondition: 4,
		NItems:              1,
		MaxReached:          1,
		MaxT:                2,
		Dt:                  0.01,
		NoiseMechanism:      "add",
		RandSeed:            7,
		ItemFormulas: []formula.Binding{
			{Name: "V", Expr: formula.Const{1.5}},
			{Name: "A", Expr: formula.Const{1}},
		},
		NoiseFactory: noisefactory.Gaussian("Sigma"),
	}
}

func TestRunWritesPartitions(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	dir := t.TempDir()
	out, err := Run(cfg, dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	ds, err := out.OpenDataset()
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	if len(ds.Chunks()) == 0 {
		t.Fatalf("expected at least one chunk")
	}
	dt, err := ds.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if dt.Rows == 0 {
		t.Fatalf("expected crossing rows, got none")
	}

	conds, err := out.OpenConditions()
	if err != nil {
		t.Fatalf("open conditions: %v", err)
	}
	condDt, err := conds.ReadAll()
	if err != nil {
		t.Fatalf("read conditions: %v", err)
	}
	if condDt.Rows != cfg.NConditions {
		t.Fatalf("expected %d condition rows, got %d", cfg.NConditions, condDt.Rows)
	}
}

func TestRunParallelMatchesSerialRowCount(t *testing.T) {
	serialCfg := testConfig()
	serialCfg.NConditions = 8
	serialCfg.NConditionsPerChunk = 2
	if err := serialCfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	serialOut, err := Run(serialCfg, filepath.Join(t.TempDir(), "serial"))
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}

	parallelCfg := testConfig()
	parallelCfg.NConditions = 8
	parallelCfg.NConditionsPerChunk = 2
	parallelCfg.Parallel = true
	parallelCfg.NCores = 4
	if err := parallelCfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	parallelOut, err := Run(parallelCfg, filepath.Join(t.TempDir(), "parallel"))
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	serialDs, _ := serialOut.OpenDataset()
	parallelDs, _ := parallelOut.OpenDataset()
	serialDt, err := serialDs.ReadAll()
	if err != nil {
		t.Fatalf("serial read: %v", err)
	}
	parallelDt, err := parallelDs.ReadAll()
	if err != nil {
		t.Fatalf("parallel read: %v", err)
	}
	if serialDt.Rows != parallelDt.Rows {
		t.Fatalf("serial and parallel row counts differ: %d vs %d", serialDt.Rows, parallelDt.Rows)
	}
}
