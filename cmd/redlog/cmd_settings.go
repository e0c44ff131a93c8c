package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the Redmine URL and API key used for new entries",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the Redmine URL and/or API key",
	Long: `Save the Redmine URL and/or API key used for new entries.

Entries already in the offline queue keep the URL and key they were
created with.`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

var settingsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the settings against Redmine",
	Args:  cobra.NoArgs,
	RunE:  runSettingsVerify,
}

func init() {
	settingsSetCmd.Flags().String("url", "", "Redmine base URL, e.g. https://redmine.example.com")
	settingsSetCmd.Flags().String("api-key", "", "Redmine API key (My account → API access key)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsVerifyCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.settings.Get()
	if err != nil {
		return err
	}
	url := s.RedmineURL
	if url == "" {
		url = "(not set)"
	}
	fmt.Printf("URL:     %s\n", url)
	fmt.Printf("API key: %s\n", maskKey(s.APIKey))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("url") && !cmd.Flags().Changed("api-key") {
		return fmt.Errorf("nothing to set — pass --url and/or --api-key")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.settings.Stored()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("url") {
		s.RedmineURL, _ = cmd.Flags().GetString("url")
	}
	if cmd.Flags().Changed("api-key") {
		s.APIKey, _ = cmd.Flags().GetString("api-key")
	}

	if err := a.settings.Set(s); err != nil {
		return err
	}
	fmt.Println("Settings saved.")
	return nil
}

func runSettingsVerify(cmd *cobra.Command, args []string) error {
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

	user, err := a.client.CurrentUser(ctx, target)
	if err != nil {
		return fmt.Errorf("verifying settings: %w", err)
	}
	fmt.Printf("Authenticated as %s %s (%s) on %s\n", user.FirstName, user.LastName, user.Login, target.URL)
	return nil
}
