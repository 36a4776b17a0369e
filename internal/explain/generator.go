package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// Generator builds plain-language explanations of screening outcomes. The
// jargon table (term -> plain definition) is injected configuration so the
// wording can change without a rebuild.
type Generator struct {
	jargon map[string]string
}

// NewGenerator creates a Generator over the injected jargon table.
func NewGenerator(jargon map[string]string) *Generator {
	return &Generator{jargon: jargon}
}

// Explain renders the full explanation: an overview sentence, one income
// comparison per matched program, any disqualifying caveats, and definitions
// for jargon terms that appear. With no matches it falls back to the concrete
// reasons given, or a generic closing line when none are attributable.
func (g *Generator) Explain(matches []model.ProgramMatch, profile *model.UserProfile, fallbackReasons []string) string {
	if len(matches) == 0 {
		return g.noMatches(profile, fallbackReasons)
	}

	var b strings.Builder
	b.WriteString(g.overview(matches, profile))

	for _, m := range matches {
		if sentence := incomeSentence(m, profile); sentence != "" {
			b.WriteString(" ")
			b.WriteString(sentence)
		}
	}

	if caveats := collectDisqualifiers(matches); len(caveats) > 0 {
		b.WriteString("\n\nThings that may affect your eligibility:\n")
		b.WriteString(NumberedList(caveats))
	}

	if defs := g.definitions(b.String()); defs != "" {
		b.WriteString("\n\n")
		b.WriteString(defs)
	}

	return b.String()
}

// overview picks one of three templates depending on how the person
// qualifies: categorical benefit receipt takes precedence, then pregnancy,
// then income.
func (g *Generator) overview(matches []model.ProgramMatch, profile *model.UserProfile) string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Program.Name
	}
	list := strings.Join(names, ", ")

	switch {
	case profile.ReceivesBenefit:
		return fmt.Sprintf("Because you already receive a qualifying benefit, you are automatically eligible to apply for: %s.", list)
	case profile.IsPregnant:
		return fmt.Sprintf("Based on your pregnancy, you may qualify for: %s.", list)
	default:
		return fmt.Sprintf("Based on your household income, you may qualify for: %s.", list)
	}
}

// incomeSentence compares the profile's income against the threshold the
// program's rule applied, when it applied one.
func incomeSentence(m model.ProgramMatch, profile *model.UserProfile) string {
	limit := m.Result.MonthlyIncomeLimit
	if limit <= 0 {
		return ""
	}
	diff := profile.MonthlyIncome - limit
	if diff <= 0 {
		return fmt.Sprintf("For %s, your monthly income of %s is under the %s limit by %s.",
			m.Program.Name, FormatCents(profile.MonthlyIncome), FormatCents(limit), FormatCents(-diff))
	}
	return fmt.Sprintf("For %s, your monthly income of %s is over the %s limit by %s.",
		m.Program.Name, FormatCents(profile.MonthlyIncome), FormatCents(limit), FormatCents(diff))
}

// noMatches builds the zero-match fallback. Concrete reasons come from the
// profile and from what the evaluation recorded; when nothing is
// attributable, a generic line avoids guessing.
func (g *Generator) noMatches(profile *model.UserProfile, reasons []string) string {
	concrete := make([]string, 0, len(reasons)+1)
	if !profile.IsCitizen && !mentions(reasons, "citizen") {
		concrete = append(concrete, "Most programs require citizenship or a qualified immigration status.")
	}
	concrete = append(concrete, reasons...)

	if len(concrete) == 0 {
		return "We did not find a program you are likely to qualify for based on your answers. A benefits counselor can review situations the screener does not cover."
	}
	return "We did not find a program you are likely to qualify for. Reasons:\n" + NumberedList(concrete)
}

// mentions reports whether any item contains the substring, ignoring case.
func mentions(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), substr) {
			return true
		}
	}
	return false
}

// collectDisqualifiers gathers the disqualifying factors across matches,
// de-duplicated, preserving first-seen order.
func collectDisqualifiers(matches []model.ProgramMatch) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range matches {
		for _, f := range m.Result.DisqualifyingFactors {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// NumberedList renders items as a numbered list, one per line.
func NumberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, item)
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// definitions returns a "Definitions" block for jargon terms appearing in
// the text, sorted by term for stable output.
func (g *Generator) definitions(text string) string {
	lower := strings.ToLower(text)

	var terms []string
	for term := range g.jargon {
		if strings.Contains(lower, strings.ToLower(term)) {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return ""
	}
	sort.Strings(terms)

	var b strings.Builder
	b.WriteString("Definitions:")
	for _, term := range terms {
		fmt.Fprintf(&b, "\n%s: %s", term, g.jargon[term])
	}
	return b.String()
}
