package posterior

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/y-guang/eam/abc"
	"github.com/y-guang/eam/abcinput"
	"github.com/y-guang/eam/eamerr"
)

func sampleResult() *abc.Result {
	data := []float64{1, 2, 3, 4, 5}
	return &abc.Result{
		Method:     abc.Rejection,
		ParamNames: []string{"V"},
		Unadjusted: mat.NewDense(5, 1, data),
		Weights:    []float64{.2, .2, .2, .2, .2},
	}
}

func TestBootstrapWithReplacement(t *testing.T) {
	res := sampleResult()
	rng := rand.New(rand.NewSource(1))
	out, err := Bootstrap(res, 20, true, rng)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	rows, cols := out.Dims()
	if rows != 20 || cols != 1 {
		t.Fatalf("unexpected dims: %d x %d", rows, cols)
	}
}

func TestBootstrapWithoutReplacementExceedsSize(t *testing.T) {
	res := sampleResult()
	rng := rand.New(rand.NewSource(1))
	_, err := Bootstrap(res, 10, false, rng)
	if !eamerr.Is(err, eamerr.ResampleSizeExceeded) {
		t.Fatalf("expected ResampleSizeExceeded, got %v", err)
	}
}

// syntheticInput builds n samples of a single parameter V uniformly in
// [0, 4] and a single summary statistic that is a noisy reciprocal (1/V)
// of V, the same fixture abc_test.go uses to exercise RunABC/ResampleABC.
func syntheticInput(n int, rng *rand.Rand) *abcinput.Input {
	params := mat.NewDense(n, 1, nil)
	stats := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := rng.Float64() * 4
		stat := 1.0/v + rng.NormFloat64()*0.02
		params.Set(i, 0, v)
		stats.Set(i, 0, stat)
	}
	return &abcinput.Input{
		ParamNames: []string{"V"},
		Params:     params,
		StatNames:  []string{"mean_rt"},
		Stats:      stats,
		Target:     []float64{0.5},
	}
}

func TestSummariseMediansReturnsMeanMedianAndCIBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	in := syntheticInput(200, rng)
	results, err := abc.ResampleABC(in, abc.Rejection, 0.2, 5, 50, false, rng)
	if err != nil {
		t.Fatalf("resample abc: %v", err)
	}
	out, err := SummariseMedians(results, 0.95)
	if err != nil {
		t.Fatalf("summarise medians: %v", err)
	}
	if out.Rows != 1 {
		t.Fatalf("expected a single summary row, got %d", out.Rows)
	}
	want := []string{"V_mean", "V_median", "V_q2.5", "V_q97.5"}
	for _, name := range want {
		found := false
		for _, c := range out.ColNames {
			if c == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected column %q, got %v", name, out.ColNames)
		}
	}
}

func TestSummariseMediansEmptyResultsErrors(t *testing.T) {
	if _, err := SummariseMedians(nil, 0.95); !eamerr.Is(err, eamerr.EmptyResults) {
		t.Fatalf("expected EmptyResults, got %v", err)
	}
}

func TestSummariseMediansInvalidCILevelErrors(t *testing.T) {
	res := sampleResult()
	if _, err := SummariseMedians([]*abc.Result{res}, 1.5); !eamerr.Is(err, eamerr.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}
