package preflight

import (
	"context"

	"subtrans/internal/config"
)

// Check names as they appear in Result.Name.
const (
	CheckNameWorkDir   = "Work directory"
	CheckNameLogDir    = "Log directory"
	CheckNameDiskSpace = "Work directory space"
	CheckNameGemini    = "Gemini API"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess(CheckNameWorkDir, cfg.Paths.WorkDir),
		CheckDirectoryAccess(CheckNameLogDir, cfg.Paths.LogDir),
		CheckDiskSpace(CheckNameDiskSpace, cfg.Paths.WorkDir),
	}

	results = append(results, CheckGemini(ctx, cfg))

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
