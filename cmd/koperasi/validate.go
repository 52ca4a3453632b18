package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a draft transaction against its category's rules",
		Long: `Validate a draft against the required fields and its category's spending
limits. Daily and monthly limits include transactions already recorded for
the same category. Nothing is stored.`,
		Example: `  koperasi validate -d "ATK kantor" --amount 250000 -c "Alat Tulis Kantor"`,
		RunE:    runValidate,
	}

	addDraftFlags(cmd)
	cmd.Flags().Bool("json", false, "print the result as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
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

	result, err := a.engine.Validate(ctx, draft)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, cli.RenderValidation(result))
	return nil
}
