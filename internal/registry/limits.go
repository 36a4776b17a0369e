package registry

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/benefitsnav/screener-cli/internal/eligibility"
	"github.com/benefitsnav/screener-cli/internal/model"
)

// LoadAssetLimitsFromFile reads a YAML document mapping jurisdiction codes
// to per-pathway asset limits in cents:
//
//	CA:
//	  aged: 200000
//	  disabled: 200000
//
// Pathway names are validated; unknown pathways are a load error so typos
// do not silently loosen the asset test.
func LoadAssetLimitsFromFile(path string) (eligibility.AssetLimits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read asset limits")
	}

	var raw map[string]map[string]int64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal asset limits")
	}

	limits := make(eligibility.AssetLimits, len(raw))
	for jurisdiction, byPathway := range raw {
		limits[jurisdiction] = make(map[model.Pathway]int64, len(byPathway))
		for name, cents := range byPathway {
			pathway := model.Pathway(name)
			if !pathway.Valid() {
				return nil, eris.New(fmt.Sprintf("registry: asset limits for %s name unknown pathway %q", jurisdiction, name))
			}
			if cents < 0 {
				return nil, eris.New(fmt.Sprintf("registry: asset limit for %s/%s is negative", jurisdiction, name))
			}
			limits[jurisdiction][pathway] = cents
		}
	}

	return limits, nil
}

// LoadJargonFromFile reads a YAML map of term to plain-language definition
// for the explanation generator.
func LoadJargonFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read jargon glossary")
	}

	var jargon map[string]string
	if err := yaml.Unmarshal(data, &jargon); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal jargon glossary")
	}

	return jargon, nil
}
