package ivpcfg

import (
	"strings"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	yamlDoc := `
method: bashforth
tolerance:
  abs: 1e-8
  rel: 1e-8
adams:
  nsteps: 6
`
	cfg, err := Load(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Method != MethodBashforth {
		t.Fatalf("expected method bashforth, got %v", cfg.Method)
	}
	if cfg.Adams.NSteps != 6 {
		t.Fatalf("expected nsteps 6, got %d", cfg.Adams.NSteps)
	}
	if cfg.Step.Max != 1.0 {
		t.Fatalf("expected unset Step.Max to keep default 1.0, got %v", cfg.Step.Max)
	}
}

func TestDefaultIsDP853(t *testing.T) {
	cfg := Default()
	if cfg.Method != MethodDP853 {
		t.Fatalf("expected default method dp853, got %v", cfg.Method)
	}
}
