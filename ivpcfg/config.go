// Package ivpcfg loads integrator configuration from YAML, mirroring the
// teacher's godesim.Config shape but scoped to the adaptive ODE engine:
// which method family to drive, tolerance envelope, step bounds, and
// logging/output behaviour.
package ivpcfg

import (
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Method names the ERK tableau or Adams driver a Config selects.
type Method string

const (
	MethodRK4          Method = "rk4"
	MethodMidpoint     Method = "midpoint"
	MethodHighamHall54 Method = "highamhall54"
	MethodDP853        Method = "dp853"
	MethodBashforth    Method = "bashforth"
	MethodMoulton      Method = "moulton"
)

// Config modifies integrator behaviour/output, set via LoadFile or Load.
type Config struct {
	Domain string `yaml:"domain"`
	Method Method `yaml:"method"`
	Log    struct {
		Results bool `yaml:"results"`
		Verbose bool `yaml:"verbose"`
	} `yaml:"log"`
	Behaviour struct {
		StepDelay time.Duration `yaml:"delay"`
	} `yaml:"behaviour"`
	Tolerance struct {
		Abs float64 `yaml:"abs"`
		Rel float64 `yaml:"rel"`
	} `yaml:"tolerance"`
	Step struct {
		Min     float64 `yaml:"min"`
		Max     float64 `yaml:"max"`
		Initial float64 `yaml:"initial"`
	} `yaml:"step"`
	Adams struct {
		NSteps int `yaml:"nsteps"`
	} `yaml:"adams"`
}

// Default returns the package's baseline configuration: DP853 with the
// tolerance and step defaults spec.md §4.4 names.
func Default() Config {
	var c Config
	c.Domain = "time"
	c.Method = MethodDP853
	c.Tolerance.Abs = 1e-9
	c.Tolerance.Rel = 1e-9
	c.Step.Min = 1e-12
	c.Step.Max = 1.0
	c.Adams.NSteps = 4
	return c
}

// Load decodes a Config from r, starting from Default() so unset fields
// keep their baseline values rather than zeroing out.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile opens path and decodes it as a Config.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Load(f)
}
