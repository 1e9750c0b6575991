package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/config"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:     "setup",
	GroupID: "setup",
	Short:   "Create a config file interactively",
	Long: `Ask for credentials and store settings and write them to a config file.

Existing values from the current config and environment are offered as
defaults. The file is written with owner-only permissions. Run
'issuesync check' afterwards to test the connections.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = app.loader.ConfigFile()
		}
		if path == "" {
			path = config.DefaultPath()
		}

		cfg := *app.cfg
		if cfg.Store.Driver == "" {
			cfg.Store.Driver = config.DriverNotion
		}

		if err := setupForm(&cfg).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Setup cancelled")
				return nil
			}
			return err
		}
		if err := storeForm(&cfg).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Setup cancelled")
				return nil
			}
			return err
		}

		if err := cfg.Validate(); err != nil {
			fmt.Printf("%s The config is incomplete:\n%v\n", ui.RenderWarnIcon(), err)
		}

		if _, err := os.Stat(path); err == nil {
			overwrite := false
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Overwrite %s?", path)).
				Value(&overwrite).
				Run()
			if err != nil || !overwrite {
				fmt.Println("Nothing written")
				return nil
			}
		}

		if err := config.Write(path, &cfg); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPassIcon(), path)
		fmt.Printf("   Run 'issuesync check' to test the connections\n")
		return nil
	},
}

func init() {
	setupCmd.Flags().StringP("output", "o", "", "file to write (default: the config in use or the user config dir)")
	rootCmd.AddCommand(setupCmd)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// setupForm asks for the GitHub and AI settings and the store driver.
func setupForm(cfg *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub token").
				Description("A personal access token with repo scope").
				EchoMode(huh.EchoModePassword).
				Validate(required("GitHub token")).
				Value(&cfg.GitHub.Token),
			huh.NewInput().
				Title("GitHub username").
				Description("Issues assigned to this login are synced").
				Validate(required("GitHub username")).
				Value(&cfg.GitHub.Username),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should records go?").
				Options(
					huh.NewOption("Notion database", config.DriverNotion),
					huh.NewOption("Local SQLite file", config.DriverSQLite),
				).
				Value(&cfg.Store.Driver),
			huh.NewSelect[string]().
				Title("Match records by").
				Options(
					huh.NewOption("Issue URL (one record per issue)", config.KeyIssue),
					huh.NewOption("Repository URL (one record per repository)", config.KeyRepository),
				).
				Value(&cfg.Sync.Key),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Anthropic API key (optional)").
				Description("Leave empty to use template descriptions").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.AI.APIKey),
		),
	)
}

// storeForm asks for the settings of the chosen store driver.
func storeForm(cfg *config.Config) *huh.Form {
	if cfg.Store.Driver == config.DriverSQLite {
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("SQLite database path").
				Validate(required("path")).
				Value(&cfg.Store.Path),
		))
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Notion integration token").
			EchoMode(huh.EchoModePassword).
			Validate(required("Notion token")).
			Value(&cfg.Notion.Token),
		huh.NewInput().
			Title("Notion database ID").
			Description("The database must be shared with the integration").
			Validate(required("database ID")).
			Value(&cfg.Notion.DatabaseID),
	))
}
