package backend

import (
	"testing"

	"github.com/y-guang/eam/eamerr"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		model string
		lhs   map[string]bool
		want  Backend
	}{
		{"ddm", map[string]bool{"A_upper": true}, DDM2B},
		{"ddm", map[string]bool{"A": true}, DDM1B},
		{"rdm", nil, DDM2B},
		{"lca", nil, LCAGI},
		{"lca-gi", nil, LCAGI},
		{"DDM-2B", nil, DDM2B},
		{"lba", nil, DDM2B},
		{"lfm", nil, DDM2B},
	}
	for _, c := range cases {
		got, err := Route(c.model, c.lhs)
		if err != nil {
			t.Fatalf("model %s: unexpected error: %v", c.model, err)
		}
		if got != c.want {
			t.Fatalf("model %s: got %s want %s", c.model, got, c.want)
		}
	}
}

func TestRouteUnknown(t *testing.T) {
	_, err := Route("foo", nil)
	if !eamerr.Is(err, eamerr.UnknownModel) {
		t.Fatalf("expected UnknownModel, got %v", err)
	}
}
