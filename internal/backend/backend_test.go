package backend

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"":       Auto,
		"  SIM ": Sim,
		"webgpu": WebGPU,
		"Auto":   Auto,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := Normalize("cuda"); err == nil {
		t.Fatalf("Normalize(cuda): expected error")
	}
}

func TestNewSim(t *testing.T) {
	t.Parallel()
	q, err := New(Sim, Options{})
	if err != nil {
		t.Fatalf("New(sim): %v", err)
	}
	defer q.Close()
	if q.Name() != Sim {
		t.Fatalf("queue name: got %q want %q", q.Name(), Sim)
	}
}

func TestAutoAlwaysOpensAQueue(t *testing.T) {
	t.Parallel()
	q, err := New(Auto, Options{})
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	defer q.Close()
	if !Has(q.Name()) {
		t.Fatalf("auto picked unavailable backend %q", q.Name())
	}
}

func TestAvailableListsSim(t *testing.T) {
	t.Parallel()
	if !strings.HasPrefix(Available(), Sim) {
		t.Fatalf("Available() = %q", Available())
	}
}
