package eligibility

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// Adult coverage band for the income-based pathway.
const (
	agedMinimum   = 65
	adultMinimum  = 19
	maxProfileAge = 120
)

// IdentifyPathways classifies demographic attributes into the set of
// eligibility pathways the person can be screened under. The rules apply
// independently, so one profile can carry several pathways:
//
//   - receipt of a qualifying cash benefit always adds the categorical route
//   - age 65 and up adds aged
//   - under 65 with a disability (and no categorical benefit) adds disabled
//   - ages 19-64 with neither disability nor categorical benefit adds MAGI
//   - pregnancy adds the pregnancy route (recorded female only)
//
// Output is sorted by pathway name so downstream ordering is deterministic.
func IdentifyPathways(age int, hasDisability, receivesBenefit, isPregnant, isFemale bool) ([]model.Pathway, error) {
	if age < 0 || age > maxProfileAge {
		return nil, eris.Errorf("pathway: age %d out of range [0,%d]", age, maxProfileAge)
	}

	var pathways []model.Pathway

	if receivesBenefit {
		pathways = append(pathways, model.PathwayCategorical)
	}
	if age >= agedMinimum {
		pathways = append(pathways, model.PathwayAged)
	}
	if age < agedMinimum && hasDisability && !receivesBenefit {
		pathways = append(pathways, model.PathwayDisabled)
	}
	if age >= adultMinimum && age < agedMinimum && !hasDisability && !receivesBenefit {
		pathways = append(pathways, model.PathwayMAGI)
	}
	if isPregnant && isFemale {
		pathways = append(pathways, model.PathwayPregnancy)
	}

	return model.SortPathways(pathways), nil
}

// RoutePrograms narrows a program catalog to programs whose pathway is in
// the applicable set, sorted by program name.
func RoutePrograms(pathways []model.Pathway, catalog []model.ProgramDefinition) []model.ProgramDefinition {
	applicable := make(map[model.Pathway]struct{}, len(pathways))
	for _, p := range pathways {
		applicable[p] = struct{}{}
	}

	var routed []model.ProgramDefinition
	for _, prog := range catalog {
		if _, ok := applicable[prog.Pathway]; ok {
			routed = append(routed, prog)
		}
	}
	sort.Slice(routed, func(i, j int) bool { return routed[i].Name < routed[j].Name })
	return routed
}
