package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axe/internal/config"
	"axe/internal/errors"
	"axe/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize axe configuration",
	Long:  "Creates a .axe/ directory with default configuration in the current project root",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .axe directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.New(errors.ConfigInvalid, "cannot determine current directory", err)
	}

	axeDir := paths.AxeDir(cwd)
	configPath := paths.ConfigPath(cwd)
	if _, statErr := os.Stat(axeDir); statErr == nil {
		if !initForce {
			// Already initialized is success, so init stays safe to run in CI.
			fmt.Println("axe already initialized.")
			fmt.Printf("Configuration at: %s\n", configPath)
			fmt.Println("\nRun 'axe init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(axeDir); removeErr != nil {
			return errors.New(errors.ConfigInvalid, "cannot remove existing .axe directory", removeErr)
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(cwd); err != nil {
		return errors.New(errors.ConfigInvalid, "cannot write config file", err)
	}

	fmt.Println("axe initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'axe extract -r src/' to extract axioms")
	fmt.Println("  2. Run 'axe query --min-confidence 0.9' to browse the cache")

	return nil
}
