package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"AreYouDead/internal/model/dto"
)

const timeLayout = "Mon Jan 2 15:04 MST"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show check-in status",
	Long:  `Show whether you are compliant, pending or overdue, when you last checked in and the next deadlines.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var checkInCmd = &cobra.Command{
	Use:     "check-in",
	Aliases: []string{"ok"},
	Short:   "Confirm you are okay",
	Args:    cobra.NoArgs,
	RunE:    runCheckIn,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent check-ins",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historyDays  int
	historyLimit int
)

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "look back this many days (server default when 0)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of records")

	rootCmd.AddCommand(statusCmd, checkInCmd, historyCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		s, err := api.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(s)
		return nil
	})
}

func printStatus(s *dto.CheckInStatusData) {
	PrintHeader("Check-in Status")
	PrintInfo("Status:        %s", s.Status)
	PrintInfo("Last check-in: %s", s.LastCheckInText)
	if !s.Enabled {
		PrintWarning("Check-in is disabled, contacts will not be alerted")
		return
	}
	PrintInfo("Next deadline: %s", s.NextDeadline.Local().Format(timeLayout))
	PrintInfo("Grace ends:    %s", s.GraceDeadline.Local().Format(timeLayout))
}

func runCheckIn(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		res, warning, err := api.CheckIn(ctx, "cli")
		if err != nil {
			return err
		}
		PrintSuccess("Checked in at %s", res.CompletedAt.Local().Format(timeLayout))
		if !res.NextDeadline.IsZero() {
			PrintInfo("Next deadline: %s", res.NextDeadline.Local().Format(timeLayout))
		}
		if warning != "" {
			PrintWarning("Check-in saved but the server reported %s", warning)
		}
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		items, err := api.History(ctx, historyDays, historyLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			PrintInfo("No check-ins in this window")
			return nil
		}
		PrintHeader("Check-ins")
		for _, it := range items {
			PrintInfo("%s  %-6s  %s", it.Timestamp.Local().Format(timeLayout), it.Source, ago(it.Timestamp))
		}
		return nil
	})
}

func ago(t time.Time) string {
	d := time.Since(t).Round(time.Minute)
	if d < time.Minute {
		return "just now"
	}
	return d.String() + " ago"
}
