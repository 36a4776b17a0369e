package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/benefitsnav/screener-cli/internal/fetch"
	"github.com/benefitsnav/screener-cli/internal/model"
)

var (
	fplYear   int
	fplURL    string
	fplFormat string
)

var fplsyncCmd = &cobra.Command{
	Use:   "fplsync",
	Short: "Download the yearly poverty guidelines and load them into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fplsync"); err != nil {
			return err
		}

		year := fplYear
		if year == 0 {
			year = cfg.Screening.FPLYear
		}

		sourceURL := fplURL
		if sourceURL == "" {
			sourceURL = cfg.Fetch.GuidelinesURL
			if sourceURL == "" && cfg.Fetch.FTPHost != "" {
				sourceURL = "ftp://" + cfg.Fetch.FTPHost + cfg.Fetch.FTPPath
			}
		}
		if sourceURL == "" {
			return eris.New("no guidelines source configured")
		}

		records, err := downloadGuidelines(cmd, sourceURL, year)
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		count, err := st.ReplaceFPLYear(cmd.Context(), year, records)
		if err != nil {
			return err
		}

		zap.L().Info("poverty guidelines loaded",
			zap.Int("year", year),
			zap.Int("records", count),
			zap.String("source", sourceURL),
		)
		return nil
	},
}

func downloadGuidelines(cmd *cobra.Command, sourceURL string, year int) ([]model.FederalPovertyRecord, error) {
	var fetcher fetch.Fetcher
	if strings.HasPrefix(sourceURL, "ftp://") {
		fetcher = fetch.NewFTPFetcher(fetch.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})
	} else {
		limiters := fetch.DefaultRateLimiters()
		if cfg.Fetch.RequestsPerSec > 0 {
			limiters["aspe.hhs.gov"] = rate.NewLimiter(rate.Limit(cfg.Fetch.RequestsPerSec), 1)
		}
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPOptions{
			Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries:   cfg.Fetch.Retries,
			RateLimiters: limiters,
		})
	}

	format := fplFormat
	if format == "" {
		format = "csv"
		if strings.HasSuffix(strings.ToLower(sourceURL), ".xlsx") {
			format = "xlsx"
		}
	}

	switch format {
	case "csv":
		body, err := fetcher.Download(cmd.Context(), sourceURL)
		if err != nil {
			return nil, err
		}
		defer body.Close() //nolint:errcheck
		return fetch.ParseGuidelinesCSV(body, year)
	case "xlsx":
		// The xlsx reader needs a seekable file, so spool to disk first.
		path := filepath.Join(os.TempDir(), "guidelines.xlsx")
		if _, err := fetcher.DownloadToFile(cmd.Context(), sourceURL, path); err != nil {
			return nil, err
		}
		defer os.Remove(path) //nolint:errcheck
		return fetch.ParseGuidelinesXLSX(path, year)
	default:
		return nil, eris.Errorf("unknown format %q, want csv or xlsx", format)
	}
}

func init() {
	fplsyncCmd.Flags().IntVar(&fplYear, "year", 0, "guideline year (default from config)")
	fplsyncCmd.Flags().StringVar(&fplURL, "url", "", "override the guidelines source URL")
	fplsyncCmd.Flags().StringVar(&fplFormat, "format", "", "source format: csv or xlsx (default inferred from URL)")
	rootCmd.AddCommand(fplsyncCmd)
}
