package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load all configured spec sources and report the results",
	Long: `Loads every endpoint's specification sources exactly as the repository
would at configure time, then prints what was loaded. Unreadable or malformed
spec files are reported as skipped; they do not fail the command.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		return err
	}

	specs := repo.Specs()
	state := repo.GetState()

	fmt.Printf("Endpoints: %d\n", len(state.Endpoints))
	for _, ep := range state.Endpoints {
		fmt.Printf("  %s (%d sources)\n", ep.BaseURL, len(ep.Specs))
	}

	fmt.Printf("Loaded specifications: %d\n", len(specs))
	for _, spec := range specs {
		scope := spec.Endpoint
		if scope == "" {
			scope = "header-map"
		}
		fmt.Printf("  [%s] %s (%s %s) from %s\n", scope, spec.Key, spec.Title, spec.Version, spec.Source)
	}

	return nil
}
