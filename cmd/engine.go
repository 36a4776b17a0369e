package main

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/eligibility"
	"github.com/benefitsnav/screener-cli/internal/explain"
	"github.com/benefitsnav/screener-cli/internal/registry"
)

// engine bundles the loaded catalog with the evaluation pipeline. Built once
// per command invocation; everything inside is safe for concurrent use.
type engine struct {
	catalog   *registry.Catalog
	screener  *eligibility.Screener
	generator *explain.Generator
	fpl       *registry.FPLTable
}

// loadEngine reads the catalog files named in config and wires the pipeline.
// The FPL table and jargon glossary are optional; a missing file logs a
// warning and the engine runs without it.
func loadEngine() (*engine, error) {
	programs, err := registry.LoadProgramsFromFile(cfg.Screening.ProgramsPath)
	if err != nil {
		return nil, err
	}
	rules, err := registry.LoadRulesFromFile(cfg.Screening.RulesPath)
	if err != nil {
		return nil, err
	}
	catalog, err := registry.NewCatalog(programs, rules)
	if err != nil {
		return nil, err
	}

	var assets *eligibility.AssetEvaluator
	if cfg.Screening.AssetLimitsPath != "" {
		limits, err := registry.LoadAssetLimitsFromFile(cfg.Screening.AssetLimitsPath)
		switch {
		case err == nil:
			assets = eligibility.NewAssetEvaluator(limits)
		case errors.Is(err, os.ErrNotExist):
			zap.L().Warn("asset limits file missing, asset tests disabled",
				zap.String("path", cfg.Screening.AssetLimitsPath),
			)
		default:
			return nil, err
		}
	}

	jargon := map[string]string{}
	if cfg.Screening.JargonPath != "" {
		loaded, err := registry.LoadJargonFromFile(cfg.Screening.JargonPath)
		if err != nil {
			zap.L().Warn("jargon glossary missing, explanations will skip definitions",
				zap.String("path", cfg.Screening.JargonPath),
				zap.Error(err),
			)
		} else {
			jargon = loaded
		}
	}

	var fpl *registry.FPLTable
	if cfg.Screening.FPLPath != "" {
		table, err := registry.LoadFPLFromFile(cfg.Screening.FPLPath)
		if err != nil {
			zap.L().Warn("poverty table missing, threshold lookups disabled",
				zap.String("path", cfg.Screening.FPLPath),
				zap.Error(err),
			)
		} else {
			fpl = table
		}
	}

	return &engine{
		catalog:   catalog,
		screener:  eligibility.NewScreener(assets, zap.L()),
		generator: explain.NewGenerator(jargon),
		fpl:       fpl,
	}, nil
}
