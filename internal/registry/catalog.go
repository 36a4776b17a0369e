// Package registry loads program catalogs, rule sets, poverty tables, and
// screening questions from their source systems and selects the versions
// that apply on a given date.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/benefitsnav/screener-cli/internal/eligibility"
	"github.com/benefitsnav/screener-cli/internal/model"
)

// LoadProgramsFromFile reads a JSON array of model.ProgramDefinition from
// the given path.
func LoadProgramsFromFile(path string) ([]model.ProgramDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read program catalog")
	}

	var programs []model.ProgramDefinition
	if err := json.Unmarshal(data, &programs); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal program catalog")
	}

	return programs, nil
}

// LoadRulesFromFile reads a JSON array of model.EligibilityRule from the
// given path. Each rule's logic tree is validated on load so malformed
// rules surface here rather than mid-screening.
func LoadRulesFromFile(path string) ([]*model.EligibilityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read rule set")
	}

	var rules []*model.EligibilityRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal rule set")
	}

	for _, r := range rules {
		if err := r.Logic.Validate(); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("registry: rule %q version %s", r.Name, r.Version))
		}
	}

	return rules, nil
}

// ActiveRule picks the rule in force at the given date: the one with the
// latest effective date not after it, whose end date (if any) is still in
// the future. Returns nil when no rule applies.
func ActiveRule(rules []*model.EligibilityRule, at time.Time) *model.EligibilityRule {
	var best *model.EligibilityRule
	for _, r := range rules {
		if !r.ActiveAt(at) {
			continue
		}
		if best == nil || r.EffectiveDate.After(best.EffectiveDate) {
			best = r
		}
	}
	return best
}

// Catalog pairs a program list with its rule history and answers the
// question "which programs, under which rule versions, apply here today".
type Catalog struct {
	programs []model.ProgramDefinition
	rules    map[string][]*model.EligibilityRule
}

// NewCatalog indexes rules by program ID. Rules referencing unknown
// programs are rejected.
func NewCatalog(programs []model.ProgramDefinition, rules []*model.EligibilityRule) (*Catalog, error) {
	known := make(map[string]bool, len(programs))
	for _, p := range programs {
		known[p.ID] = true
	}

	byProgram := make(map[string][]*model.EligibilityRule)
	for _, r := range rules {
		if !known[r.ProgramID] {
			return nil, eris.New(fmt.Sprintf("registry: rule %q references unknown program %s", r.Name, r.ProgramID))
		}
		byProgram[r.ProgramID] = append(byProgram[r.ProgramID], r)
	}

	return &Catalog{programs: programs, rules: byProgram}, nil
}

// Programs returns the catalog's programs for a jurisdiction, sorted by
// name. An empty jurisdiction returns everything.
func (c *Catalog) Programs(jurisdiction string) []model.ProgramDefinition {
	var out []model.ProgramDefinition
	for _, p := range c.programs {
		if jurisdiction == "" || p.Jurisdiction == jurisdiction {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Candidates builds the screening candidate list for a jurisdiction at a
// date: every program there with a rule in force, paired with that rule.
// Programs whose rule history has no active version are skipped.
func (c *Catalog) Candidates(jurisdiction string, at time.Time) []eligibility.Candidate {
	var out []eligibility.Candidate
	for _, p := range c.Programs(jurisdiction) {
		rule := ActiveRule(c.rules[p.ID], at)
		if rule == nil {
			continue
		}
		out = append(out, eligibility.Candidate{Program: p, Rule: rule})
	}
	return out
}
