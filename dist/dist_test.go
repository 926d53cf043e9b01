package dist

import (
	"math/rand"
	"testing"

	"github.com/y-guang/eam/eamerr"
)

func TestDeterministicBroadcast(t *testing.T) {
	d := Deterministic{2}
	out, err := d.Realize("test", 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range out {
		if v != 2 {
			t.Fatalf("expected all 2, got %v", out)
		}
	}
}

func TestDeterministicTile(t *testing.T) {
	d := Deterministic{1, 2}
	out, err := d.Realize("test", 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 2, 1, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("got %v want %v", out, want)
		}
	}
}

func TestDeterministicLengthMismatch(t *testing.T) {
	d := Deterministic{1, 2, 3}
	_, err := d.Realize("test", 2, nil)
	if !eamerr.Is(err, eamerr.LengthMismatch) {
		t.Fatalf("expected LengthMismatch, got %v", err)
	}
}

func TestUniformRealizeCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	v := Uniform(0, 1)
	out, err := v.Realize("test", 5, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(out))
	}
	for _, x := range out {
		if x < 0 || x > 1 {
			t.Fatalf("sample %v out of range", x)
		}
	}
}
