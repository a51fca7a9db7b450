package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lazycheck/internal/checker"
	"lazycheck/internal/journal"
	"lazycheck/internal/lightclass"
	"lazycheck/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Check every declaration in lazycheck.toml",
	Long: `Build a light class for every declaration of the project, raise the
allowed computation level one step at a time, and fail any class whose
producer computes more than the current level allows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: checkExecution,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "parallel sessions (0 = [check].jobs or GOMAXPROCS)")
	checkCmd.Flags().Bool("eager", false, "use an eager producer (every check should fail)")
	checkCmd.Flags().Bool("fail-fast", false, "stop at the first failing class")
	checkCmd.Flags().StringSlice("only", nil, "check only these classes (qualified or short names)")
	checkCmd.Flags().String("format", "text", "output format (text|json)")
	checkCmd.Flags().String("order", "load", "session order (load|hierarchy)")
	checkCmd.Flags().Bool("journal", false, "persist session histories for replay")
	checkCmd.Flags().String("journal-dir", "", "journal directory (default $XDG_CACHE_HOME/lazycheck/sessions)")
}

func loadManifest(args []string) (*project.Manifest, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	if filepath.Ext(start) == ".toml" {
		if _, err := os.Stat(start); err == nil {
			return project.LoadFile(start)
		}
	}
	return project.Load(start)
}

func checkExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}
	cfg := manifest.Config

	log, err := setupLogger(cmd, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := checker.Options{
		Jobs:     cfg.Check.Jobs,
		Eager:    cfg.Check.Eager,
		FailFast: cfg.Check.FailFast,
		Root:     cfg.Check.Root,
		Logger:   log,
	}
	if cmd.Flags().Changed("jobs") {
		if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("eager") {
		if opts.Eager, err = cmd.Flags().GetBool("eager"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("fail-fast") {
		if opts.FailFast, err = cmd.Flags().GetBool("fail-fast"); err != nil {
			return err
		}
	}

	order, err := cmd.Flags().GetString("order")
	if err != nil {
		return err
	}
	all := manifest.Declarations
	switch order {
	case "load":
	case "hierarchy":
		all = manifest.Hierarchy
	default:
		return fmt.Errorf("unsupported order %q (must be load or hierarchy)", order)
	}

	decls, err := selectDeclarations(cmd, all)
	if err != nil {
		return err
	}
	log.Debug("manifest loaded",
		zap.String("path", manifest.Path),
		zap.Int("declarations", len(decls)))

	started := time.Now()
	results, runErr := checker.New(opts).RunAll(cmd.Context(), decls)
	results = completed(results)

	if err := writeJournal(cmd, cfg.Journal, results, started, log); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := renderResultsJSON(out, results); err != nil {
			return err
		}
	} else {
		renderResultsText(out, results)
	}

	if runErr != nil {
		dumpRing(cmd)
		if opts.FailFast {
			return errFailed
		}
		return runErr
	}
	for _, r := range results {
		if !r.Passed() {
			dumpRing(cmd)
			return errFailed
		}
	}
	return nil
}

// completed drops the sessions a cancelled run never started.
func completed(results []checker.Result) []checker.Result {
	out := results[:0]
	for _, r := range results {
		if !r.Started.IsZero() {
			out = append(out, r)
		}
	}
	return out
}

func selectDeclarations(cmd *cobra.Command, all []lightclass.Declaration) ([]lightclass.Declaration, error) {
	only, err := cmd.Flags().GetStringSlice("only")
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return all, nil
	}
	idx, err := lightclass.NewIndex(all)
	if err != nil {
		return nil, err
	}
	out := make([]lightclass.Declaration, 0, len(only))
	for _, name := range only {
		d, ok := idx.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("no declaration named %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

func writeJournal(cmd *cobra.Command, cfg project.JournalConfig, results []checker.Result, started time.Time, log *zap.Logger) error {
	enabled := cfg.Enabled
	if cmd.Flags().Changed("journal") {
		var err error
		if enabled, err = cmd.Flags().GetBool("journal"); err != nil {
			return err
		}
	}
	if !enabled {
		return nil
	}
	dir := cfg.Dir
	if flagDir, _ := cmd.Flags().GetString("journal-dir"); flagDir != "" {
		dir = flagDir
	}
	store, err := journal.Open(dir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	for _, r := range results {
		rec := journal.NewRecord(r, started)
		if err := store.Put(rec); err != nil {
			return fmt.Errorf("write journal: %w", err)
		}
		log.Debug("session journaled",
			zap.String("subject", rec.Subject),
			zap.String("session", rec.Session))
	}
	fmt.Fprintln(cmd.ErrOrStderr(), dimColor.Sprintf("journal: %d sessions written to %s", len(results), store.Dir()))
	return nil
}

func displayName(r checker.Result) string {
	if r.Subject.IsZero() {
		return r.Name
	}
	return r.Subject.String()
}

func renderResultsText(out io.Writer, results []checker.Result) {
	width := runewidth.StringWidth("SUBJECT")
	for _, r := range results {
		width = max(width, runewidth.StringWidth(displayName(r)))
	}

	fmt.Fprintf(out, "%s  %s  %-7s  %s\n", "STATUS", runewidth.FillRight("SUBJECT", width), "LEVEL", "DETAIL")
	failed := 0
	for _, r := range results {
		detail := ""
		if !r.Passed() {
			failed++
			detail = r.Err.Error()
			if v, ok := r.Violation(); ok {
				detail = v.Kind.String() + ": " + detail
			}
		}
		fmt.Fprintf(out, "%s    %s  %-7s  %s\n",
			statusLabel(r.Passed()),
			runewidth.FillRight(displayName(r), width),
			r.Level,
			detail)
	}
	summary := fmt.Sprintf("\n%d of %d classes passed.", len(results)-failed, len(results))
	fmt.Fprintln(out, strings.TrimRight(summary, " "))
}

type resultPayload struct {
	Subject   string   `json:"subject"`
	Passed    bool     `json:"passed"`
	Level     string   `json:"level"`
	Violation string   `json:"violation,omitempty"`
	Error     string   `json:"error,omitempty"`
	History   []string `json:"history"`
	TookMS    float64  `json:"took_ms"`
}

func renderResultsJSON(out io.Writer, results []checker.Result) error {
	payload := make([]resultPayload, 0, len(results))
	for _, r := range results {
		p := resultPayload{
			Subject: displayName(r),
			Passed:  r.Passed(),
			Level:   r.Level.String(),
			History: make([]string, 0, len(r.History)),
			TookMS:  float64(r.Duration) / float64(time.Millisecond),
		}
		for _, e := range r.History {
			p.History = append(p.History, e.String())
		}
		if r.Err != nil {
			p.Error = r.Err.Error()
		}
		if v, ok := r.Violation(); ok {
			p.Violation = v.Kind.String()
		}
		payload = append(payload, p)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
