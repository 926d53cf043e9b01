package simconfig

import (
	"testing"

	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/formula"
)

func baseConfig() *Config {
	return &Config{
		Model:               "ddm",
		NConditions:         10,
		NTrialsPerCondition: 5,
		NItems:              1,
		MaxReached:          1,
		MaxT:                1,
		Dt:                  0.01,
		NoiseMechanism:      "add",
		ItemFormulas: []formula.Binding{
			{Name: "V", Expr: formula.Const{1.5}},
			{Name: "A", Expr: formula.Const{1}},
		},
	}
}

func TestValidateOK(t *testing.T) {
	c := baseConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Backend() != "ddm" {
		t.Fatalf("expected ddm backend, got %v", c.Backend())
	}
	if c.NConditionsPerChunk < 1 {
		t.Fatalf("expected a positive chunk size, got %d", c.NConditionsPerChunk)
	}
}

func TestValidateMaxReachedExceedsItems(t *testing.T) {
	c := baseConfig()
	c.MaxReached = 2
	err := c.Validate()
	if !eamerr.Is(err, eamerr.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func TestValidateMissingRequiredLHS(t *testing.T) {
	c := baseConfig()
	c.ItemFormulas = []formula.Binding{
		{Name: "A", Expr: formula.Const{1}},
	}
	err := c.Validate()
	if !eamerr.Is(err, eamerr.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid for missing V, got %v", err)
	}
}

func TestValidateUnknownModel(t *testing.T) {
	c := baseConfig()
	c.Model = "bogus"
	err := c.Validate()
	if !eamerr.Is(err, eamerr.UnknownModel) {
		t.Fatalf("expected UnknownModel, got %v", err)
	}
}

func TestChunkSizeRowCap(t *testing.T) {
	cs := ChunkSize(10000, 100, 100, 4, true)
	if cs < 1 {
		t.Fatalf("expected positive chunk size, got %d", cs)
	}
	if cs*100*100 > 200000 {
		t.Fatalf("rows per chunk exceed cap: %d", cs*100*100)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := baseConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir := t.TempDir()
	path := dir + "/config.toml"
	if err := c.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.NConditions != c.NConditions || loaded.Model != c.Model {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}
