package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/internal/extension"
	"github.com/aide-sh/aide/internal/hooks"
)

func init() {
	hooksCmd.AddCommand(hooksListCmd, hooksEnableCmd, hooksDisableCmd)
	rootCmd.AddCommand(hooksCmd)
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage lifecycle hooks",
}

// loadRegistry builds the hook registry from all settings scopes.
func loadRegistry() (*hooks.Registry, error) {
	loader := config.NewLoader()
	registry := hooks.NewRegistry(loader, extension.LoadLayers(".aide/extensions")...)
	if err := registry.Initialize(); err != nil {
		return nil, err
	}
	return registry, nil
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}

		entries := registry.GetAllHooks()
		if len(entries) == 0 {
			fmt.Println("No hooks configured.")
			return nil
		}

		for _, e := range entries {
			state := "enabled"
			if !e.Enabled {
				state = "disabled"
			}
			matcher := e.Matcher
			if matcher == "" {
				matcher = "*"
			}
			fmt.Printf("%-12s %-10s %-8s %-10s %s\n",
				e.EventName, e.Source, state, matcher, e.Name())
		}
		return nil
	},
}

var hooksEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a hook by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		return registry.SetHookEnabled(args[0], true)
	},
}

var hooksDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a hook by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		return registry.SetHookEnabled(args[0], false)
	},
}
