package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders results as human-readable text.
func FormatText(results []*RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Running %d scenario file", len(results))
	if len(results) != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	totalSteps, totalPassed, failedScenarios := 0, 0, 0
	for _, r := range results {
		totalSteps += r.Total
		totalPassed += r.Passed
		status := "PASS"
		if r.Failed > 0 {
			status = "FAIL"
			failedScenarios++
		}
		fmt.Fprintf(&b, "  %s  %s (%d/%d, final %s)\n", status, r.Name, r.Passed, r.Total, r.Final)
		for _, s := range r.Steps {
			if s.Passed {
				continue
			}
			fmt.Fprintf(&b, "    FAIL  step %d: %-28s expected %s, got %s\n", s.Index, s.Op, s.Expected, s.Actual)
			if s.Reason != "" {
				fmt.Fprintf(&b, "          %s\n", s.Reason)
			}
		}
	}

	fmt.Fprintf(&b, "\n%d of %d steps passed.", totalPassed, totalSteps)
	if failedScenarios > 0 {
		fmt.Fprintf(&b, " %d of %d scenarios failed.", failedScenarios, len(results))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatJSON renders results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}

// AnyFailed reports whether any scenario had a failing step.
func AnyFailed(results []*RunResult) bool {
	for _, r := range results {
		if r.Failed > 0 {
			return true
		}
	}
	return false
}
