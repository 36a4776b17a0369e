package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benefitsnav/screener-cli/internal/model"
	"github.com/benefitsnav/screener-cli/internal/store"
)

var (
	screenAt       string
	screenParallel int
	screenSave     bool
	screenJSON     bool
)

var screenCmd = &cobra.Command{
	Use:   "screen <profile.json> [profile.json ...]",
	Short: "Screen household profiles against the program catalog",
	Long:  "Reads one or more household profile files (or - for stdin), evaluates each against the active program rules, and prints ranked matches with a plain-language explanation.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("screen"); err != nil {
			return err
		}

		at := time.Now()
		if screenAt != "" {
			parsed, err := time.Parse("2006-01-02", screenAt)
			if err != nil {
				return eris.Wrapf(err, "parse --at %q", screenAt)
			}
			at = parsed
		}

		eng, err := loadEngine()
		if err != nil {
			return err
		}

		var st store.Store
		if screenSave {
			st, err = openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		records := make([]*model.ScreeningRecord, len(args))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(screenParallel)
		for i, path := range args {
			g.Go(func() error {
				profile, err := loadProfile(path)
				if err != nil {
					return err
				}

				candidates := eng.catalog.Candidates(profile.Jurisdiction, at)
				outcome, err := eng.screener.EvaluateProfile(profile, candidates, at)
				if err != nil {
					return eris.Wrapf(err, "screen %s", path)
				}

				rec := &model.ScreeningRecord{
					Profile:     *profile,
					Matches:     outcome.Matches,
					Explanation: eng.generator.Explain(outcome.Matches, profile, outcome.ExcludedReasons),
				}

				if st != nil {
					if err := st.SaveScreening(ctx, rec); err != nil {
						return err
					}
					zap.L().Info("screening saved",
						zap.String("id", rec.ID),
						zap.String("jurisdiction", profile.Jurisdiction),
					)
				}

				records[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if screenJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		for i, rec := range records {
			printScreening(cmd.OutOrStdout(), args[i], rec)
		}
		return nil
	},
}

// loadProfile reads a profile from a JSON file, or stdin when path is "-".
func loadProfile(path string) (*model.UserProfile, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read profile %s", path)
	}

	var profile model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, eris.Wrapf(err, "parse profile %s", path)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

func printScreening(w io.Writer, source string, rec *model.ScreeningRecord) {
	fmt.Fprintf(w, "== %s ==\n", source)
	if len(rec.Matches) == 0 {
		fmt.Fprintln(w, "No likely matches.")
	}
	for _, m := range rec.Matches {
		fmt.Fprintf(w, "%-40s %-20s score %d\n", m.Program.Name, m.Result.Status, m.Score)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rec.Explanation)
	fmt.Fprintln(w)
}

func init() {
	screenCmd.Flags().StringVar(&screenAt, "at", "", "evaluation date YYYY-MM-DD (default today)")
	screenCmd.Flags().IntVar(&screenParallel, "parallel", 4, "profiles evaluated concurrently")
	screenCmd.Flags().BoolVar(&screenSave, "save", false, "persist results to the screening audit trail")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "emit machine-readable JSON")
	rootCmd.AddCommand(screenCmd)
}
