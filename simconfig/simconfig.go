// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simconfig validates and persists a SimulationConfig, the
// complete recipe a simulation run is driven from (spec.md §3, C6 in the
// component table).
package simconfig

import (
	"math"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/y-guang/eam/backend"
	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/formula"
	"github.com/y-guang/eam/kernel"
	"github.com/y-guang/eam/noisefactory"
)

// Config is a complete, validated recipe for a simulation run.
type Config struct {
	// Model selects the kernel family by name (ddm, ddm-1b, ddm-2b, rdm,
	// lba, lca, lca-gi, lfm); resolved to a concrete Backend by Validate.
	Model string `default:"ddm"`

	// PriorFormulas are resolved once per condition, n = NConditions.
	PriorFormulas []formula.Binding `display:"-"`
	// BetweenTrialFormulas are resolved once per condition, seeded with
	// that condition's row, n = NTrialsPerCondition.
	BetweenTrialFormulas []formula.Binding `display:"-"`
	// ItemFormulas are resolved once per trial, seeded with that trial's
	// row, n = NItems.
	ItemFormulas []formula.Binding `display:"-"`

	// PriorParams seeds the condition-level environment with named
	// constants available to every formula tier.
	PriorParams formula.Env `display:"-"`

	// NoiseFactory builds the per-trial noise callable (spec.md C3).
	NoiseFactory noisefactory.Factory `display:"-"`

	// NConditions is the number of condition rows to simulate.
	NConditions int `default:"100" min:"1"`
	// NTrialsPerCondition is the number of trials simulated per condition.
	NTrialsPerCondition int `default:"50" min:"1"`
	// NItems is the number of accumulators competing within a trial.
	NItems int `default:"1" min:"1"`
	// MaxReached caps how many items may record a boundary crossing per
	// trial; must be <= NItems.
	MaxReached int `default:"1" min:"1"`

	// MaxT is the Euler integration horizon in the kernel's time units.
	MaxT float64 `default:"5"`
	// Dt is the Euler step size.
	Dt float64 `default:"0.001"`

	// NoiseMechanism selects the coupling mode (add, mult, mult_evidence,
	// mult_t); "mult" is accepted as an alias for mult_evidence.
	NoiseMechanism string `default:"add"`

	// NConditionsPerChunk partitions conditions into on-disk chunks; 0
	// requests the heuristic default (see ChunkSize).
	NConditionsPerChunk int `default:"0" min:"0"`

	// Parallel selects the goroutine worker pool driver over the serial
	// one.
	Parallel bool `default:"false"`
	// NCores bounds the worker pool size when Parallel is true.
	NCores int `default:"0" min:"0"`
	// RandSeed deterministically seeds the run's RNG stream(s).
	RandSeed int64 `default:"1"`

	backendResolved backend.Backend
}

// Backend returns the resolved kernel backend; only valid after Validate.
func (c *Config) Backend() backend.Backend { return c.backendResolved }

// NormalizedNoiseMechanism folds the "mult" alias into "mult_evidence"
// (spec.md §9, open question on mixed noise_mechanism handling).
func (c *Config) NormalizedNoiseMechanism() kernel.Coupling {
	switch c.NoiseMechanism {
	case "mult":
		return kernel.CouplingMultEvidence
	case "mult_evidence":
		return kernel.CouplingMultEvidence
	case "mult_t":
		return kernel.CouplingMultT
	default:
		return kernel.CouplingAdd
	}
}

// lhsNames collects every LHS name across all three formula tiers plus
// the PriorParams keys, as backend.Route needs.
func (c *Config) lhsNames() map[string]bool {
	names := map[string]bool{}
	for k := range c.PriorParams {
		names[k] = true
	}
	for _, tier := range [][]formula.Binding{c.PriorFormulas, c.BetweenTrialFormulas, c.ItemFormulas} {
		for _, b := range tier {
			names[b.Name] = true
		}
	}
	return names
}

// Validate checks the invariants in spec.md §3 and resolves the backend.
// It must be called before the config is handed to simrun.Run.
func (c *Config) Validate() error {
	const op = "simconfig.Validate"
	if c.NConditions < 1 || c.NTrialsPerCondition < 1 || c.NItems < 1 {
		return eamerr.New(eamerr.ConfigInvalid, op, "grid sizes must be >= 1")
	}
	if c.MaxReached < 1 || c.MaxReached > c.NItems {
		return eamerr.New(eamerr.ConfigInvalid, op, "max_reached must be in [1, n_items]")
	}
	if c.MaxT <= 0 || c.Dt <= 0 {
		return eamerr.New(eamerr.ConfigInvalid, op, "max_t and dt must be > 0")
	}
	switch c.NoiseMechanism {
	case "add", "mult", "mult_evidence", "mult_t":
	default:
		return eamerr.New(eamerr.ConfigInvalid, op, "unknown noise_mechanism "+c.NoiseMechanism)
	}

	names := c.lhsNames()
	be, err := backend.Route(c.Model, names)
	if err != nil {
		return err
	}
	c.backendResolved = be

	for _, req := range backend.RequiredParams(be) {
		if !names[req] {
			return eamerr.New(eamerr.ConfigInvalid, op, "missing required formula LHS \""+req+"\" for backend "+string(be))
		}
	}

	if c.Parallel {
		if c.NCores <= 0 {
			c.NCores = defaultNCores()
		}
	} else if c.NCores <= 0 {
		c.NCores = 1
	}
	if c.RandSeed == 0 {
		c.RandSeed = 1
	}
	if c.NConditionsPerChunk <= 0 {
		c.NConditionsPerChunk = ChunkSize(c.NConditions, c.NTrialsPerCondition, c.NItems, c.NCores, c.Parallel)
	}
	return nil
}

// ChunkSize implements the heuristic in spec.md §4.4: when parallel,
// target n_partitions in [n_cores, 10*n_cores], approximately
// sqrt(n_conditions); cap so rows-per-chunk <= 200,000; floor 1.
func ChunkSize(nConditions, nTrialsPerCondition, nItems, nCores int, parallel bool) int {
	if nConditions < 1 {
		return 1
	}
	target := int(math.Sqrt(float64(nConditions)))
	if parallel && nCores > 0 {
		minPart := nCores
		maxPart := 10 * nCores
		if target < minPart {
			target = minPart
		}
		if target > maxPart {
			target = maxPart
		}
	}
	if target < 1 {
		target = 1
	}
	perChunk := nConditions / target
	if perChunk < 1 {
		perChunk = 1
	}
	rowsPerCondition := nTrialsPerCondition * nItems
	if rowsPerCondition > 0 {
		maxPerChunk := 200000 / rowsPerCondition
		if maxPerChunk < 1 {
			maxPerChunk = 1
		}
		if perChunk > maxPerChunk {
			perChunk = maxPerChunk
		}
	}
	if perChunk < 1 {
		perChunk = 1
	}
	return perChunk
}

// defaultNCores implements "n_cores = available - 1" from spec.md §6.
func defaultNCores() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// persisted is the subset of Config that survives a TOML round-trip;
// formulas and the noise factory are Go closures/ASTs and are not
// serializable, matching the "config dump" described in spec.md §6
// (callers reconstruct the formula tiers in code and reattach them after
// Load).
type persisted struct {
	Model                string
	NConditions          int
	NTrialsPerCondition  int
	NItems               int
	MaxReached           int
	MaxT                 float64
	Dt                   float64
	NoiseMechanism       string
	NConditionsPerChunk  int
	Parallel             bool
	NCores               int
	RandSeed             int64
}

// Save persists the non-formula fields of c to path as TOML, following
// the econfig.Config-style plain-struct persistence the teacher stack
// uses for run configuration.
func (c *Config) Save(path string) error {
	p := persisted{
		Model: c.Model, NConditions: c.NConditions, NTrialsPerCondition: c.NTrialsPerCondition,
		NItems: c.NItems, MaxReached: c.MaxReached, MaxT: c.MaxT, Dt: c.Dt,
		NoiseMechanism: c.NoiseMechanism, NConditionsPerChunk: c.NConditionsPerChunk,
		Parallel: c.Parallel, NCores: c.NCores, RandSeed: c.RandSeed,
	}
	b, err := toml.Marshal(p)
	if err != nil {
		return eamerr.Wrap(eamerr.IOError, "simconfig.Save", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return eamerr.Wrap(eamerr.IOError, "simconfig.Save", err)
	}
	return nil
}

// Load reads the non-formula fields previously written by Save. Callers
// must still attach PriorFormulas/BetweenTrialFormulas/ItemFormulas/
// NoiseFactory/PriorParams and call Validate before use.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, "simconfig.Load", err)
	}
	var p persisted
	if err := toml.Unmarshal(b, &p); err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, "simconfig.Load", err)
	}
	return &Config{
		Model: p.Model, NConditions: p.NConditions, NTrialsPerCondition: p.NTrialsPerCondition,
		NItems: p.NItems, MaxReached: p.MaxReached, MaxT: p.MaxT, Dt: p.Dt,
		NoiseMechanism: p.NoiseMechanism, NConditionsPerChunk: p.NConditionsPerChunk,
		Parallel: p.Parallel, NCores: p.NCores, RandSeed: p.RandSeed,
	}, nil
}
