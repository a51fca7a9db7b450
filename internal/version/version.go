// Package version holds build metadata for the lazycheck CLI. The plain
// values can be overridden at build time via -ldflags.
package version

import "github.com/fatih/color"

var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
)

// Banner returns "lazycheck <version>", colored when color output is on.
func Banner() string {
	return nameColor.Sprint("lazycheck") + " " + versionColor.Sprint(Version)
}
