package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"lazycheck/internal/guard"
	"lazycheck/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and replay journaled check sessions",
}

var journalLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List journaled sessions, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		recs, err := store.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, dimColor.Sprintf("no sessions in %s", store.Dir()))
			return nil
		}
		width := runewidth.StringWidth("SUBJECT")
		for _, r := range recs {
			width = max(width, runewidth.StringWidth(r.Subject))
		}
		fmt.Fprintf(out, "%-8s  %-19s  %s  %-7s  %s\n", "SESSION", "STARTED", runewidth.FillRight("SUBJECT", width), "LEVEL", "STATUS")
		for _, r := range recs {
			fmt.Fprintf(out, "%-8s  %-19s  %s  %-7s  %s\n",
				r.Session[:8],
				r.Started.Local().Format(time.DateTime),
				runewidth.FillRight(r.Subject, width),
				r.Final,
				statusLabel(r.Error == ""))
		}
		return nil
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print the guard history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "session  %s\n", rec.Session)
		fmt.Fprintf(out, "subject  %s\n", rec.Subject)
		fmt.Fprintf(out, "started  %s (took %s)\n", rec.Started.Local().Format(time.RFC3339), rec.Took)
		fmt.Fprintf(out, "final    %s\n", rec.Final)
		if rec.Error != "" {
			fmt.Fprintf(out, "error    %s\n", failColor.Sprint(rec.Error))
		}
		fmt.Fprintln(out)
		for i, e := range rec.Entries {
			line := fmt.Sprintf("%3d  %s", i+1, e)
			if e.Violation != guard.ViolationKind(0) {
				line = failColor.Sprint(line)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var journalReplayCmd = &cobra.Command{
	Use:   "replay <session>",
	Short: "Re-apply a session's history to a fresh guard",
	Long: `Replay a journaled session against a fresh guard and verify that every
report is accepted or rejected exactly as it was when the session ran.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		g, err := journal.Replay(rec)
		if err != nil {
			if errors.Is(err, journal.ErrReplayDiverged) {
				fmt.Fprintln(cmd.OutOrStdout(), statusLabel(false), err)
				return errFailed
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s replayed %d entries, final level %s\n",
			statusLabel(true), rec.Subject, len(rec.Entries), g.Current())
		return nil
	},
}

var journalDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Remove every journaled session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		if err := store.DropAll(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dimColor.Sprintf("dropped sessions in %s", store.Dir()))
		return nil
	},
}

func init() {
	journalCmd.PersistentFlags().String("dir", "", "journal directory (default $XDG_CACHE_HOME/lazycheck/sessions)")
	journalCmd.AddCommand(journalLsCmd, journalShowCmd, journalReplayCmd, journalDropCmd)
}

func openJournal(cmd *cobra.Command) (*journal.Store, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}
	return journal.Open(dir)
}
