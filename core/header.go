package core

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/segreg/internal/contract"
)

// logAnalysisHeader prints a concise, 2-line header describing the input and estimator.
func logAnalysisHeader(cfg *contract.Config) {
	// Line 1: where the series comes from
	if cfg.InputFile != "" {
		fmt.Printf("🔎 Input: %s (cutover: %d)\n", filepath.Base(cfg.InputFile), cfg.Cutover)
	} else {
		fmt.Printf("🔎 Simulated: %d quarters from %d.%d (cutover: %d, seed: %d)\n",
			cfg.Periods, cfg.StartYear, cfg.StartQuarter, cfg.Cutover, cfg.Seed)
	}

	// Line 2: the estimator settings
	fmt.Printf("📈 Prais-Winsten: tolerance %g, max iterations %d, alpha %g\n",
		cfg.Tolerance, cfg.MaxIterations, cfg.Alpha)
}
