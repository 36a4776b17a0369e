package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/benefitsnav/screener-cli/internal/registry"
)

var (
	rulesJurisdiction string
	rulesAt           string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List programs and their active rule versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("screen"); err != nil {
			return err
		}

		at := time.Now()
		if rulesAt != "" {
			parsed, err := time.Parse("2006-01-02", rulesAt)
			if err != nil {
				return eris.Wrapf(err, "parse --at %q", rulesAt)
			}
			at = parsed
		}

		programs, err := registry.LoadProgramsFromFile(cfg.Screening.ProgramsPath)
		if err != nil {
			return err
		}
		rules, err := registry.LoadRulesFromFile(cfg.Screening.RulesPath)
		if err != nil {
			return err
		}
		catalog, err := registry.NewCatalog(programs, rules)
		if err != nil {
			return err
		}

		candidates := catalog.Candidates(rulesJurisdiction, at)
		active := make(map[string]string, len(candidates))
		for _, cand := range candidates {
			active[cand.Program.ID] = cand.Rule.Version
		}

		for _, p := range catalog.Programs(rulesJurisdiction) {
			version, ok := active[p.ID]
			if !ok {
				version = "no active rule"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-40s %-12s %s\n", p.Code, p.Name, p.Pathway, version)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesJurisdiction, "jurisdiction", "", "filter by jurisdiction (default all)")
	rulesCmd.Flags().StringVar(&rulesAt, "at", "", "active-rule date YYYY-MM-DD (default today)")
	rootCmd.AddCommand(rulesCmd)
}
