// Package rules applies a project rules.toml to extracted axioms: a
// confidence floor, disabled axiom types, and per-id confidence
// overrides.
//
// Example rules.toml:
//
//	min_confidence = 0.5
//	disabled_types = ["COMPLEXITY"]
//
//	[confidence]
//	"effect.calls_begin" = 0.6
//	"precond.bounds_check" = 0.99
//
// Override keys match an axiom id exactly or as a dot-separated suffix;
// the longest matching key wins.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"axe/internal/axiom"
	"axe/internal/errors"
)

// Explicit axioms stay at 1.0 and pattern axioms stay below it, whatever
// the overrides say. The ceiling keeps rescored pattern axioms honest.
const maxPatternConfidence = 0.99

// File is the decoded shape of rules.toml.
type File struct {
	MinConfidence float64            `toml:"min_confidence"`
	DisabledTypes []string           `toml:"disabled_types"`
	Confidence    map[string]float64 `toml:"confidence"`
}

// Rules is a validated, applicable rule set. The zero value (and nil)
// passes everything through unchanged.
type Rules struct {
	minConfidence float64
	disabled      map[axiom.Type]bool
	overrides     map[string]float64
}

// Load reads and validates a rules.toml.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.RulesInvalid,
			fmt.Sprintf("cannot read rules file %s", path), err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.RulesInvalid,
			fmt.Sprintf("cannot parse rules file %s", path), err)
	}
	return Compile(f)
}

// Compile validates a decoded rules file.
func Compile(f File) (*Rules, error) {
	if f.MinConfidence < 0 || f.MinConfidence > 1 {
		return nil, errors.New(errors.RulesInvalid,
			fmt.Sprintf("min_confidence %v outside [0, 1]", f.MinConfidence), nil)
	}

	r := &Rules{
		minConfidence: f.MinConfidence,
		disabled:      make(map[axiom.Type]bool, len(f.DisabledTypes)),
		overrides:     make(map[string]float64, len(f.Confidence)),
	}
	for _, name := range f.DisabledTypes {
		t, ok := axiom.ParseType(name)
		if !ok {
			return nil, errors.New(errors.RulesInvalid,
				fmt.Sprintf("unknown axiom type %q in disabled_types", name), nil)
		}
		r.disabled[t] = true
	}
	for key, c := range f.Confidence {
		if c < 0 || c > 1 {
			return nil, errors.New(errors.RulesInvalid,
				fmt.Sprintf("confidence override %q = %v outside [0, 1]", key, c), nil)
		}
		r.overrides[key] = c
	}
	return r, nil
}

// Apply filters and rescores axioms. Disabled types are dropped, then
// overrides rescore pattern axioms, then the confidence floor runs.
// Explicit axioms are compiler-backed; their 1.0 is part of the output
// contract and overrides do not touch them.
func (r *Rules) Apply(axioms []axiom.Axiom) []axiom.Axiom {
	if r == nil {
		return axioms
	}
	out := make([]axiom.Axiom, 0, len(axioms))
	for _, ax := range axioms {
		if r.disabled[ax.AxiomType] {
			continue
		}
		if ax.SourceType != axiom.SourceExplicit {
			if c, ok := r.override(ax.ID); ok {
				if c > maxPatternConfidence {
					c = maxPatternConfidence
				}
				ax.Confidence = c
			}
		}
		if ax.Confidence < r.minConfidence {
			continue
		}
		out = append(out, ax)
	}
	return out
}

func (r *Rules) override(id string) (float64, bool) {
	best, found := "", false
	var conf float64
	for key, c := range r.overrides {
		if key != id && !strings.HasSuffix(id, "."+key) {
			continue
		}
		if !found || len(key) > len(best) {
			best, conf, found = key, c, true
		}
	}
	return conf, found
}

// MinConfidence returns the configured confidence floor.
func (r *Rules) MinConfidence() float64 {
	if r == nil {
		return 0
	}
	return r.minConfidence
}
