package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/service"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Inspect recorded transactions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			var filter service.TransactionFilter
			var err error
			if from != "" {
				if filter.StartDate, err = parseDate(from, time.Now()); err != nil {
					return err
				}
			}
			if to != "" {
				if filter.EndDate, err = parseDate(to, time.Now()); err != nil {
					return err
				}
			}
			filter.Limit = limit

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
			if category != "" {
				if filter.CategoryID, err = resolveCategory(categories, category); err != nil {
					return err
				}
			}

			txns, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No transactions found."))
				return nil
			}

			name := categoryNamer(categories)
			tw := newTable(out, "Date", "Type", "Amount", "Category", "Description", "ID")
			for _, txn := range txns {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.Date.Format(dateLayout), txn.Type, cli.FormatAmount(txn.Amount),
					name(txn.CategoryID), txn.Description, txn.ID)
			}
			return tw.Flush()
		},
	}
	list.Flags().String("from", "", "first day to include (YYYY-MM-DD)")
	list.Flags().String("to", "", "last day to include (YYYY-MM-DD)")
	list.Flags().StringP("category", "c", "", "only this category (name or id)")
	list.Flags().Int("limit", 0, "maximum number of rows (0 for all)")
	cmd.AddCommand(list)

	return cmd
}
