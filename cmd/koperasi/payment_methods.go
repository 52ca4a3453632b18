package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/spf13/cobra"
)

func paymentMethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment-methods",
		Aliases: []string{"pm"},
		Short:   "Manage payment methods",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List payment methods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			methods, err := store.GetPaymentMethods(ctx)
			if err != nil {
				return fmt.Errorf("failed to list payment methods: %w", err)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "Name", "Type", "Classified")
			for _, pm := range methods {
				classified := "no"
				if pm.Type == model.PaymentMethodBankTransfer {
					classified = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", pm.ID, pm.Name, pm.Type, classified)
			}
			return tw.Flush()
		},
	})

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			pm := model.PaymentMethod{Name: strings.TrimSpace(args[0]), Type: model.PaymentMethodType(strings.ToLower(typ))}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.CreatePaymentMethod(ctx, &pm); err != nil {
				return fmt.Errorf("failed to create payment method: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created payment method %q (id %d)", pm.Name, pm.ID)))
			return nil
		},
	}
	create.Flags().String("type", string(model.PaymentMethodBankTransfer), "payment method type (cash, bank_transfer, e_wallet, other)")
	cmd.AddCommand(create)

	return cmd
}
