package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"AreYouDead/internal/model/dto"
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"contact"},
	Short:   "Manage emergency contacts",
}

var contactsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List emergency contacts",
	Args:    cobra.NoArgs,
	RunE:    runContactsList,
}

var contactsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Add an emergency contact",
	Example: `  ayok contacts add "Jane Doe" --phone +15551234567 --email jane@example.com`,
	Args:    cobra.ExactArgs(1),
	RunE:    runContactsAdd,
}

var contactsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove an emergency contact",
	Args:    cobra.ExactArgs(1),
	RunE:    runContactsRm,
}

var escalationsCmd = &cobra.Command{
	Use:   "escalations",
	Short: "Show recent escalation runs",
	Args:  cobra.NoArgs,
	RunE:  runEscalations,
}

var (
	contactPhone     string
	contactEmail     string
	escalationsLimit int
)

func init() {
	contactsAddCmd.Flags().StringVar(&contactPhone, "phone", "", "phone number, local or E.164")
	contactsAddCmd.Flags().StringVar(&contactEmail, "email", "", "email address")
	escalationsCmd.Flags().IntVar(&escalationsLimit, "limit", 10, "maximum number of runs")

	contactsCmd.AddCommand(contactsListCmd, contactsAddCmd, contactsRmCmd)
	rootCmd.AddCommand(contactsCmd, escalationsCmd)
}

func runContactsList(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		items, err := api.Contacts(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			PrintWarning("No emergency contacts, nobody will be alerted")
			return nil
		}
		PrintHeader("Emergency Contacts")
		for _, c := range items {
			PrintInfo("%-20d %-20s %-16s %s", c.ID, c.Name, orDash(c.Phone), orDash(c.Email))
		}
		return nil
	})
}

func runContactsAdd(cmd *cobra.Command, args []string) error {
	if contactPhone == "" && contactEmail == "" {
		return fmt.Errorf("a contact needs --phone or --email")
	}
	return withClient(cmd, func(ctx context.Context, api API) error {
		c, err := api.AddContact(ctx, dto.CreateContactRequest{
			Name:  args[0],
			Phone: contactPhone,
			Email: contactEmail,
		})
		if err != nil {
			return err
		}
		PrintSuccess("Added %s (id %d)", c.Name, c.ID)
		return nil
	})
}

func runContactsRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid contact id %q", args[0])
	}
	return withClient(cmd, func(ctx context.Context, api API) error {
		if err := api.RemoveContact(ctx, id); err != nil {
			return err
		}
		PrintSuccess("Removed contact %d", id)
		return nil
	})
}

func runEscalations(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, api API) error {
		runs, err := api.Escalations(ctx, escalationsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			PrintInfo("No escalations yet")
			return nil
		}
		PrintHeader("Escalations")
		for _, r := range runs {
			PrintInfo("%s  %-8s %d/%d delivered  contacts=%d  period=%s",
				r.StartedAt.Local().Format(timeLayout), r.Status, r.Succeeded, r.Attempted, r.ContactCount, r.PeriodKey)
		}
		return nil
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
