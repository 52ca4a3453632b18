package main

import (
	"fmt"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load categories, payment methods and patterns from a YAML file",
		Long: `Load a YAML seed file describing payment methods, categories with their
validation rules, and classification patterns.

Categories that already exist are updated in place. Patterns are always
added, so seeding the same file twice duplicates its patterns.`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := config.LoadSeed(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	result, err := seed.Apply(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to apply seed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Seeded %d payment methods, %d new and %d updated categories, %d patterns",
		result.PaymentMethodsCreated, result.CategoriesCreated, result.CategoriesUpdated, result.PatternsCreated)))
	return nil
}
