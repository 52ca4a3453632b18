package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories and their spending rules",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(createCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No categories yet. Create one with 'koperasi categories create' or 'koperasi seed'."))
				return nil
			}

			tw := newTable(out, "ID", "Name", "Type", "Per txn", "Daily", "Monthly", "Approval")
			for _, cat := range categories {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					cat.ID, cat.Name, cat.Type,
					optionalAmount(cat.ValidationRules.MaxTransactionAmount),
					optionalAmount(cat.ValidationRules.MaxDailyAmount),
					optionalAmount(cat.ValidationRules.MaxMonthlyAmount),
					approvalSummary(cat.ValidationRules))
			}
			return tw.Flush()
		},
	}
}

func approvalSummary(rules model.ValidationRules) string {
	switch {
	case rules.RequiresApproval:
		return "always"
	case rules.ApprovalThreshold != nil:
		return "≥ " + cli.FormatAmount(*rules.ApprovalThreshold)
	}
	return "-"
}

func createCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreateCategory,
	}

	cmd.Flags().String("type", string(model.CategoryTypeExpense), "category type (income, expense, both)")
	cmd.Flags().String("color", "", "display color")
	cmd.Flags().String("max-transaction", "", "largest amount allowed for one transaction")
	cmd.Flags().String("max-daily", "", "largest total allowed per calendar day")
	cmd.Flags().String("max-monthly", "", "largest total allowed per calendar month")
	cmd.Flags().String("approval-threshold", "", "amounts at or above this require approval")
	cmd.Flags().Bool("requires-approval", false, "every transaction requires approval")

	return cmd
}

func runCreateCategory(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	color, _ := cmd.Flags().GetString("color")
	requiresApproval, _ := cmd.Flags().GetBool("requires-approval")

	seed := config.SeedCategory{
		Name:  args[0],
		Type:  model.CategoryType(strings.ToLower(typ)),
		Color: color,
		Validation: config.SeedValidation{
			RequiresApproval: requiresApproval,
		},
	}
	seed.Validation.MaxTransactionAmount, _ = cmd.Flags().GetString("max-transaction")
	seed.Validation.MaxDailyAmount, _ = cmd.Flags().GetString("max-daily")
	seed.Validation.MaxMonthlyAmount, _ = cmd.Flags().GetString("max-monthly")
	seed.Validation.ApprovalThreshold, _ = cmd.Flags().GetString("approval-threshold")

	cat, err := seed.Category()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.CreateCategory(ctx, &cat); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %q (id %d)", cat.Name, cat.ID)))
	return nil
}
