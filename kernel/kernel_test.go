package kernel

import (
	"math"
	"math/rand"
	"testing"
)

func zeroNoise(count int, dt float64) []float64 {
	return make([]float64, count)
}

func TestDDM1BTrivialCrossing(t *testing.T) {
	out, err := SimulateDDM1B([]float64{1e9}, []float64{1}, nil, nil, 1, 1e-3, 1, CouplingAdd, zeroNoise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one crossing, got %d", len(out))
	}
	if out[0].ItemIdx != 0 {
		t.Fatalf("expected item 0, got %d", out[0].ItemIdx)
	}
	if math.Abs(out[0].RT-1e-3) > 1e-6 {
		t.Fatalf("expected rt ~= dt, got %v", out[0].RT)
	}
}

func TestDDM2BSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	noise := func(count int, dt float64) []float64 {
		out := make([]float64, count)
		for i := range out {
			out[i] = rng.NormFloat64() * math.Sqrt(dt)
		}
		return out
	}
	nUp := 0
	total := 2000
	for trial := 0; trial < total; trial++ {
		out, err := SimulateDDM2B([]float64{0}, []float64{1}, []float64{-1}, nil, nil, 3, 1e-2, 1, CouplingAdd, noise)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) == 1 && out[0].Choice == 1 {
			nUp++
		}
	}
	p := float64(nUp) / float64(total)
	if math.Abs(p-0.5) > 0.05 {
		t.Fatalf("expected P(choice=+1) near 0.5, got %v", p)
	}
}

func TestInvalidKernelInput(t *testing.T) {
	_, err := SimulateDDM1B([]float64{1}, []float64{1, 2}, nil, nil, 1, 1e-3, 1, CouplingAdd, zeroNoise)
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestInvalidKernelInputMismatchedNDT(t *testing.T) {
	_, err := SimulateDDM1B([]float64{1, 1}, []float64{1, 1}, nil, []float64{0}, 1, 1e-3, 1, CouplingAdd, zeroNoise)
	if err == nil {
		t.Fatal("expected error for mismatched NDT length, not a panic")
	}
}

func TestInvalidKernelInputMismatchedZ(t *testing.T) {
	_, err := SimulateDDM2B([]float64{1, 1}, []float64{1, 1}, []float64{-1, -1}, []float64{0}, nil, 1, 1e-3, 1, CouplingAdd, zeroNoise)
	if err == nil {
		t.Fatal("expected error for mismatched Z length, not a panic")
	}
}

func TestMaxReachedBound(t *testing.T) {
	out, err := SimulateLCAGI(
		[]float64{10, 10, 10}, []float64{0, 0, 0}, []float64{0, 0, 0}, []float64{1, 1, 1}, nil,
		1, 1e-3, 2, CouplingAdd, zeroNoise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) > 2 {
		t.Fatalf("expected at most 2 crossings, got %d", len(out))
	}
}
