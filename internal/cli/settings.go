package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"AreYouDead/internal/model/dto"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change check-in settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long: `Change one or more settings. Only the flags you pass are sent; the server
reschedules the reminder and verification tasks after saving.`,
	Example: `  ayok settings set --hour 8 --minute 30
  ayok settings set --enabled=false
  ayok settings set --method sms --frequency 2`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

var setFlags struct {
	hour, minute, grace, frequency int
	enabled                        bool
	method, name                   string
}

func init() {
	f := settingsSetCmd.Flags()
	f.IntVar(&setFlags.hour, "hour", 0, "check-in hour (0-23)")
	f.IntVar(&setFlags.minute, "minute", 0, "check-in minute (0-59)")
	f.IntVar(&setFlags.grace, "grace", 0, "grace period in hours")
	f.IntVar(&setFlags.frequency, "frequency", 0, "check in every N days (1-3)")
	f.BoolVar(&setFlags.enabled, "enabled", true, "enable or disable the check-in")
	f.StringVar(&setFlags.method, "method", "", "messaging method: sms, whatsapp or both")
	f.StringVar(&setFlags.name, "name", "", "your name, used in alert messages")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		s, err := api.Settings(ctx)
		if err != nil {
			return err
		}
		printSettings(s)
		return nil
	})
}

// buildUpdate 只带上用户显式指定的字段
func buildUpdate(cmd *cobra.Command) (dto.UpdateSettingsRequest, error) {
	var req dto.UpdateSettingsRequest
	f := cmd.Flags()
	if f.Changed("hour") {
		req.CheckInHour = &setFlags.hour
	}
	if f.Changed("minute") {
		req.CheckInMinute = &setFlags.minute
	}
	if f.Changed("grace") {
		req.GracePeriodHours = &setFlags.grace
	}
	if f.Changed("frequency") {
		req.CheckInFrequencyDays = &setFlags.frequency
	}
	if f.Changed("enabled") {
		req.Enabled = &setFlags.enabled
	}
	if f.Changed("method") {
		req.MessagingMethod = &setFlags.method
	}
	if f.Changed("name") {
		req.UserName = &setFlags.name
	}
	if req == (dto.UpdateSettingsRequest{}) {
		return req, fmt.Errorf("nothing to update, pass at least one flag")
	}
	return req, nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	req, err := buildUpdate(cmd)
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, api API) error {
		s, err := api.UpdateSettings(ctx, req)
		if err != nil {
			return err
		}
		PrintSuccess("Settings saved")
		printSettings(s)
		return nil
	})
}

func printSettings(s *dto.SettingsData) {
	PrintHeader("Settings")
	PrintInfo("Check-in time: %02d:%02d", s.CheckInHour, s.CheckInMinute)
	PrintInfo("Grace period:  %dh", s.GracePeriodHours)
	PrintInfo("Frequency:     every %d day(s)", s.CheckInFrequencyDays)
	PrintInfo("Enabled:       %t", s.Enabled)
	PrintInfo("Messaging:     %s", s.MessagingMethod)
	PrintInfo("Name:          %s", s.UserName)
	if s.ScheduleState != "" {
		PrintInfo("Schedule:      %s", s.ScheduleState)
	}
}
