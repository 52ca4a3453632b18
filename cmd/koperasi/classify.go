package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Suggest a category for a bank-transfer withdrawal",
		Long: `Score the active patterns against a draft withdrawal and print the best
suggestion. Only expenses paid by bank transfer are classified; nothing is
stored.`,
		Example: `  koperasi classify -d "TRSF GAJI KARYAWAN MEI" --amount 15.000.000 -p BCA`,
		RunE:    runClassify,
	}

	addDraftFlags(cmd)
	cmd.Flags().Bool("json", false, "print the result as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a)

	draft, err := draftFromFlags(ctx, cmd, a.store)
	if err != nil {
		return err
	}

	result, err := a.engine.Classify(ctx, draft)
	if errors.Is(err, common.ErrNotClassifiable) {
		return common.NewUserError("only bank-transfer expenses are classified", err)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	categories, err := a.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	fmt.Fprintln(out, cli.RenderClassification(result, categoryNamer(categories)))
	return nil
}
