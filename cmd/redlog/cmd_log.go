package main

import (
	"context"
	"fmt"
	"time"

	"github.com/christopherklint97/redlog/internal/delivery"
	"github.com/christopherklint97/redlog/internal/redmine"
	"github.com/christopherklint97/redlog/internal/store"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a time entry (queued if Redmine is unreachable)",
	Example: `  redlog log --issue 5 --hours 2 --comment "Code review"
  redlog log --issue 5 --hours 1.5 --activity 9 --date yesterday`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Send queued entries now, stopping at the first that cannot reach Redmine",
	Args:  cobra.NoArgs,
	RunE:  runRetry,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's delivered entries and the offline queue size",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List Redmine time entry activities",
	Args:  cobra.NoArgs,
	RunE:  runActivities,
}

func init() {
	logCmd.Flags().Int("issue", 0, "Issue number (required)")
	logCmd.Flags().Float64("hours", 0, "Hours spent (required)")
	logCmd.Flags().Int("activity", 0, "Activity id (defaults to redmine.default_activity_id)")
	logCmd.Flags().StringP("comment", "m", "", "Comment")
	logCmd.Flags().String("date", "today", "Day the time was spent (YYYY-MM-DD or e.g. \"yesterday\")")
	logCmd.MarkFlagRequired("issue")
	logCmd.MarkFlagRequired("hours")
}

func runLog(cmd *cobra.Command, args []string) error {
	issue, _ := cmd.Flags().GetInt("issue")
	hours, _ := cmd.Flags().GetFloat64("hours")
	activity, _ := cmd.Flags().GetInt("activity")
	comment, _ := cmd.Flags().GetString("comment")
	dateFlag, _ := cmd.Flags().GetString("date")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if activity == 0 {
		activity = a.cfg.Redmine.DefaultActivityID
	}

	day, err := parseDate(dateFlag, time.Now())
	if err != nil {
		return err
	}

	entry, err := redmine.NewTimeEntry(issue, day, hours, activity, comment)
	if err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}

	stop := a.printStatus()
	defer stop()

	a.engine.Submit(cmd.Context(), entry)
	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pending, err := a.engine.Pending()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	stop := a.printStatus()
	defer stop()

	a.engine.Drain(cmd.Context())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.db.TodayJournal()
	if err != nil {
		return fmt.Errorf("fetching today's entries: %w", err)
	}
	pending, err := a.engine.Pending()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No entries sent today.")
	} else {
		fmt.Println("Today's entries:")
		fmt.Println()
		for _, e := range entries {
			fmt.Printf("  %s  #%-6d %5.2fh  %-10s  %s\n",
				e.CreatedAt.Local().Format("15:04"),
				e.IssueID,
				e.Hours,
				e.Outcome,
				e.Comments,
			)
		}
		hours, delivered := deliveredTotals(entries)
		fmt.Printf("\nDelivered: %.2fh (%d entries)\n", hours, delivered)
		if rejected := len(entries) - delivered; rejected > 0 {
			fmt.Printf("Rejected: %d entries\n", rejected)
		}
	}

	fmt.Printf("Queued: %d\n", len(pending))
	return nil
}

func runActivities(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := a.target()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout())
	defer cancel()

	activities, err := a.client.ListActivities(ctx, target)
	if err != nil {
		return fmt.Errorf("fetching activities: %w", err)
	}

	if len(activities) == 0 {
		fmt.Println("No activities found.")
		return nil
	}

	for _, act := range activities {
		marker := ""
		if act.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("  %4d  %s%s\n", act.ID, act.Name, marker)
	}
	return nil
}

// deliveredTotals sums the journal rows Redmine accepted.
func deliveredTotals(entries []store.JournalEntry) (hours float64, count int) {
	for _, e := range entries {
		if e.Outcome != delivery.Delivered.String() {
			continue
		}
		hours += e.Hours
		count++
	}
	return hours, count
}
