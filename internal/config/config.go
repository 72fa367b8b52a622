package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration shape (YAML).
type Config struct {
	// CaseFile points at the network case JSON. Relative paths are
	// resolved against the config file's directory when possible.
	CaseFile string `yaml:"case_file"`

	Scenarios ScenarioConfig  `yaml:"scenarios"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Solver    SolverConfig    `yaml:"solver"`
}

type ScenarioConfig struct {
	// Count of sampled wind scenarios. Default 100.
	Count int `yaml:"count"`
	// Seed for deterministic sampling. Default 1.
	Seed uint64 `yaml:"seed"`
	// Correlation is the uniform pairwise farm correlation in [0,1).
	Correlation float64 `yaml:"correlation"`
	// File optionally loads pre-generated deviation rows instead of
	// sampling; it overrides Count/Seed/Correlation.
	File string `yaml:"file"`
}

type ConsensusConfig struct {
	Agents    int   `yaml:"agents"`     // 0: ceil(N/10)
	Diameter  int   `yaml:"diameter"`   // 0: 3
	MaxRounds int   `yaml:"max_rounds"` // 0: 100
	Seed      int64 `yaml:"seed"`       // graph generation seed; 0: time-based
	Verbose   bool  `yaml:"verbose"`
	Debug     bool  `yaml:"debug"`

	FeasTol      float64 `yaml:"feas_tol"`
	ActiveTol    float64 `yaml:"active_tol"`
	ObjTol       float64 `yaml:"obj_tol"`
	ConsensusTol float64 `yaml:"consensus_tol"`
}

type SolverConfig struct {
	MaxIter int     `yaml:"max_iter"`
	FeasTol float64 `yaml:"feas_tol"`
}

// Load reads, defaults, and validates a config. Unknown keys are returned
// as warnings, not errors.
func Load(path string) (*Config, []string, error) {
	c, warns, err := LoadUnchecked(path)
	if err != nil {
		return nil, nil, err
	}
	if c.Scenarios.Count == 0 && c.Scenarios.File == "" {
		c.Scenarios.Count = 100
	}
	if c.Scenarios.Seed == 0 {
		c.Scenarios.Seed = 1
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	// Resolve case_file against the config directory if that exists.
	if c.CaseFile != "" && !filepath.IsAbs(c.CaseFile) {
		cand := filepath.Join(filepath.Dir(path), c.CaseFile)
		if _, err := os.Stat(cand); err == nil {
			c.CaseFile = cand
		}
	}
	return c, warns, nil
}

// LoadUnchecked loads without defaulting or validating. Useful for
// debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, nil, err
	}
	warns, err := unknownKeys(raw)
	if err != nil {
		return nil, nil, err
	}
	return &c, warns, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.CaseFile == "" {
		return errors.New("case_file is required")
	}
	if c.Scenarios.Count < 0 {
		return errors.New("scenarios.count must be >= 0")
	}
	if c.Scenarios.Correlation < 0 || c.Scenarios.Correlation >= 1 {
		return errors.New("scenarios.correlation must be in [0,1)")
	}
	if c.Consensus.Agents < 0 || c.Consensus.Diameter < 0 || c.Consensus.MaxRounds < 0 {
		return errors.New("consensus.agents/diameter/max_rounds must be >= 0")
	}
	return nil
}

var knownKeys = map[string][]string{
	"":          {"case_file", "scenarios", "consensus", "solver"},
	"scenarios": {"count", "seed", "correlation", "file"},
	"consensus": {"agents", "diameter", "max_rounds", "seed", "verbose", "debug", "feas_tol", "active_tol", "obj_tol", "consensus_tol"},
	"solver":    {"max_iter", "feas_tol"},
}

// unknownKeys walks the document's mappings and reports keys the config
// does not recognize. Unrecognized keys are a warning, not an error.
func unknownKeys(raw []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	var warns []string
	collect := func(section string, node *yaml.Node) {
		if node.Kind != yaml.MappingNode {
			return
		}
		allowed := map[string]bool{}
		for _, k := range knownKeys[section] {
			allowed[k] = true
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if !allowed[key] {
				where := key
				if section != "" {
					where = section + "." + key
				}
				warns = append(warns, fmt.Sprintf("unrecognized option %q ignored", where))
			}
		}
	}
	root := doc.Content[0]
	collect("", root)
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			name := root.Content[i].Value
			if _, ok := knownKeys[name]; ok && name != "" {
				collect(name, root.Content[i+1])
			}
		}
	}
	return warns, nil
}
