// Package preflight checks that the checklist can be completed and
// submitted before an operator starts work.
package preflight

import (
	"fmt"
	"net/url"
	"os"

	"github.com/robertguss/steershaft-checklist/internal/checklist"
	"github.com/robertguss/steershaft-checklist/internal/config"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Name    string
	Passed  bool
	Warning bool // failure does not stop the operator
	Message string
	Error   string
}

// Results holds all pre-flight check results
type Results struct {
	Checks  []CheckResult
	AllPass bool
}

// RunAll runs every check against the resolved configuration and the
// active checklist definition.
func RunAll(cfg *config.Config, def *checklist.Definition) *Results {
	results := &Results{AllPass: true}

	results.addCheck(checkSubmitURL(cfg))
	results.addCheck(checkChecklist(def))
	results.addCheck(checkDataDir(cfg))
	if cfg.WatchEnabled {
		results.addCheck(checkWatchedFile(cfg))
	}

	return results
}

func (r *Results) addCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if !check.Passed && !check.Warning {
		r.AllPass = false
	}
}

// FailedChecks returns only the failed checks, warnings included
func (r *Results) FailedChecks() []CheckResult {
	failed := make([]CheckResult, 0)
	for _, check := range r.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// checkSubmitURL verifies a usable sheet-generation endpoint is configured
func checkSubmitURL(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Submit Endpoint"}

	if cfg.SubmitURL == "" {
		result.Error = "No submit URL configured; set submit_url or " + config.EnvSubmitURL
		return result
	}

	u, err := url.Parse(cfg.SubmitURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.Error = fmt.Sprintf("Invalid submit URL: %s", cfg.SubmitURL)
		return result
	}

	result.Passed = true
	result.Message = u.Host
	return result
}

// checkChecklist verifies the active definition has steps
func checkChecklist(def *checklist.Definition) CheckResult {
	result := CheckResult{Name: "Checklist"}

	if def == nil {
		result.Error = "No checklist loaded"
		return result
	}
	if err := def.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%s (%d steps)", def.Name, len(def.Steps))
	return result
}

// checkDataDir verifies checklists can be stored (warning only)
func checkDataDir(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Data Directory", Warning: true}

	dir := checklist.NewStore(cfg.DataDir).Dir()
	info, err := os.Stat(dir)
	if err != nil {
		result.Error = fmt.Sprintf("Directory not found: %s", dir)
		return result
	}
	if !info.IsDir() {
		result.Error = fmt.Sprintf("Not a directory: %s", dir)
		return result
	}

	result.Passed = true
	result.Message = dir
	return result
}

// checkWatchedFile verifies watch mode has a file to watch (warning only)
func checkWatchedFile(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Watched Checklist", Warning: true}

	path := checklist.NewStore(cfg.DataDir).Path(cfg.ActiveChecklist)
	if _, err := os.Stat(path); err != nil {
		result.Error = fmt.Sprintf("Nothing to watch until %s exists", path)
		return result
	}

	result.Passed = true
	result.Message = path
	return result
}
