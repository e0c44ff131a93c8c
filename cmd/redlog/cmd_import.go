package main

import (
	"fmt"
	"time"

	"github.com/christopherklint97/redlog/internal/calendar"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <calendar>",
	Short: "Log calendar events (.ics file or URL) as time entries on one issue",
	Example: `  redlog import meetings.ics --issue 42 --from "last monday" --to today
  redlog import https://calendar.example.com/me.ics --issue 42 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int("issue", 0, "Issue to book the events on (required)")
	importCmd.Flags().Int("activity", 0, "Activity id (defaults to redmine.default_activity_id)")
	importCmd.Flags().String("from", "today", "First day to import")
	importCmd.Flags().String("to", "today", "Last day to import (inclusive)")
	importCmd.Flags().Bool("dry-run", false, "Print the entries without sending them")
	importCmd.MarkFlagRequired("issue")
}

func runImport(cmd *cobra.Command, args []string) error {
	issue, _ := cmd.Flags().GetInt("issue")
	activity, _ := cmd.Flags().GetInt("activity")
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	now := time.Now()
	from, err := parseDate(fromFlag, now)
	if err != nil {
		return err
	}
	to, err := parseDate(toFlag, now)
	if err != nil {
		return err
	}
	start := startOfDay(from)
	end := startOfDay(to).AddDate(0, 0, 1)
	if !end.After(start) {
		return fmt.Errorf("--from must not be after --to")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if activity == 0 {
		activity = a.cfg.Redmine.DefaultActivityID
	}

	r, err := calendar.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	events, err := calendar.Parse(r, start, end)
	r.Close()
	if err != nil {
		return err
	}

	entries, err := calendar.TimeEntries(events, issue, activity)
	if err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No events in range.")
		return nil
	}

	if dryRun {
		for _, e := range entries {
			fmt.Printf("  %s  #%-6d %5.2fh  %s\n", e.SpentOn, e.IssueID, e.Hours, e.Comments)
		}
		fmt.Printf("\n%d entries (dry run, nothing sent)\n", len(entries))
		return nil
	}

	stop := a.printStatus()
	defer stop()

	for _, e := range entries {
		a.engine.Submit(cmd.Context(), e)
	}

	pending, err := a.engine.Pending()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}
	fmt.Printf("\nSubmitted %d entries, %d waiting in the offline queue.\n", len(entries), len(pending))
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
