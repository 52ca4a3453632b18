package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/importer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import recorded transactions from an OFX or CSV bank export",
		Long: `Import past transactions so daily and monthly limits see them.

OFX/QFX files are read with their FITIDs as ids. CSV files need the header
columns date, description and amount; id and type are optional. Expenses
are categorised by the active patterns when the suggestion reaches
--min-confidence. Transactions already imported are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("payment-method", "p", "", "payment method name or id for the imported transactions")
	cmd.Flags().Float64("min-confidence", 0, "lowest suggestion confidence to accept as the category")
	cmd.Flags().String("delimiter", ",", "CSV field delimiter")
	cmd.Flags().Bool("dry-run", false, "parse and classify without saving")

	_ = viper.BindPFlag(config.KeyImportConfidence, cmd.Flags().Lookup("min-confidence"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	delimiter, _ := cmd.Flags().GetString("delimiter")
	method, _ := cmd.Flags().GetString("payment-method")

	format, err := importer.DetectFormat(path)
	if err != nil {
		return err
	}
	var parser importer.Parser
	switch format {
	case importer.FormatOFX:
		parser = importer.NewOFXParser(nil)
	case importer.FormatCSV:
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("%w: delimiter must be a single character", common.ErrInvalidInput)
		}
		parser = importer.NewCSVParser(runes[0], nil)
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Nothing from this file was saved.")
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a)

	opts := importer.Options{
		MinConfidence: viper.GetFloat64(config.KeyImportConfidence),
		DryRun:        dryRun,
	}
	if method != "" {
		methods, err := a.store.GetPaymentMethods(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payment methods: %w", err)
		}
		if opts.PaymentMethodID, err = resolvePaymentMethod(methods, method); err != nil {
			return err
		}
	}

	var bar *progressbar.ProgressBar
	opts.Progress = func(done, total int) {
		if bar == nil {
			bar = cli.NewProgressBar(cmd.ErrOrStderr(), total, "Classifying")
		}
		cli.ProgressFunc(bar)(done, total)
	}

	result, err := importer.New(a.store, a.engine).ImportFile(ctx, path, parser, opts)
	if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		categories, err := a.store.GetCategories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		name := categoryNamer(categories)

		tw := newTable(out, "Date", "Type", "Amount", "Category", "Description")
		for _, txn := range result.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				txn.Date.Format(dateLayout), txn.Type, cli.FormatAmount(txn.Amount), name(txn.CategoryID), txn.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d parsed, %d categorised, nothing saved", result.Parsed, result.Categorized)))
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d transactions (%d categorised, %d already present)",
		result.Inserted, result.Parsed, result.Categorized, result.Parsed-result.Inserted)))
	return nil
}
