package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lazycheck/internal/scenario"
	"lazycheck/internal/watch"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario <file|dir>...",
	Short: "Run YAML guard scenarios",
	Long: `Run scripted guard scenarios. Each YAML file drives one guard through
allow, report and check steps and compares the outcomes with the
expectations written next to them. Directories are expanded to the
*.yaml and *.yml files they contain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: scenarioExecution,
}

func init() {
	scenarioCmd.Flags().String("format", "text", "output format (text|json)")
	scenarioCmd.Flags().Bool("watch", false, "re-run when a scenario file changes")
}

func scenarioExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}

	log, err := setupLogger(cmd, "")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	files, err := expandScenarioArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenario files found in %s", strings.Join(args, ", "))
	}

	out := cmd.OutOrStdout()
	failed, err := runScenarios(out, files, format)
	if err != nil {
		return err
	}
	if !watchMode {
		if failed {
			return errFailed
		}
		return nil
	}

	w, err := watch.New(args, watch.WithExtensions(".yaml", ".yml"), watch.WithLogger(log))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), dimColor.Sprint("watching for changes, press Ctrl+C to stop"))
	return w.Run(cmd.Context(), func(changed []string) {
		log.Info("scenario files changed", zap.Strings("paths", changed))
		files, err := expandScenarioArgs(args)
		if err != nil {
			log.Error("expand scenario paths", zap.Error(err))
			return
		}
		if _, err := runScenarios(out, files, format); err != nil {
			log.Error("run scenarios", zap.Error(err))
		}
	})
}

func runScenarios(out io.Writer, files []string, format string) (bool, error) {
	results := make([]*scenario.RunResult, 0, len(files))
	for _, f := range files {
		r, err := scenario.LoadAndRun(f)
		if err != nil {
			return false, err
		}
		results = append(results, r)
	}

	if format == "json" {
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, s)
	} else {
		fmt.Fprint(out, colorizeScenarioText(scenario.FormatText(results)))
	}
	return scenario.AnyFailed(results), nil
}

func colorizeScenarioText(s string) string {
	s = strings.ReplaceAll(s, "  PASS  ", "  "+passColor.Sprint("PASS")+"  ")
	return strings.ReplaceAll(s, "  FAIL  ", "  "+failColor.Sprint("FAIL")+"  ")
}

func expandScenarioArgs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".yaml", ".yml":
				names = append(names, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(names)
		for _, n := range names {
			add(n)
		}
	}
	return files, nil
}
