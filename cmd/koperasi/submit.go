package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/engine"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/spf13/cobra"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a transaction, confirming or overriding the suggested category",
		Long: `Record a transaction the way the entry form does: bank-transfer expenses
get a category suggestion, you confirm it or pick another, the draft is
validated, and the outcome is written to the classification ledger.

Missing description and amount are prompted for. With --yes nothing is
asked: the --category flag or the suggestion is used as is.`,
		Example: `  koperasi submit -d "TRSF GAJI KARYAWAN MEI" --amount 15000000 -p BCA
  koperasi submit -d "ATK" --amount 250000 -p BCA -c "Rapat" --reason "snack rapat" --yes`,
		RunE: runSubmit,
	}

	addDraftFlags(cmd)
	cmd.Flags().String("reason", "", "why the suggested category was overridden")
	cmd.Flags().Bool("force", false, "record the transaction even if validation fails")
	cmd.Flags().BoolP("yes", "y", false, "do not prompt")

	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	yes, _ := cmd.Flags().GetBool("yes")
	reason, _ := cmd.Flags().GetString("reason")

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Submission")
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Nothing was recorded.")
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a)

	draft, err := draftFromFlags(ctx, cmd, a.store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	if !yes {
		if err := promptMissing(ctx, prompter, &draft); err != nil {
			return err
		}
	}

	categories, err := a.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	name := categoryNamer(categories)

	var suggestion *model.ClassificationResult
	result, err := a.engine.Classify(ctx, draft)
	switch {
	case err == nil:
		suggestion = &result
		fmt.Fprintln(out, cli.RenderClassification(result, name))
	case errors.Is(err, common.ErrNotClassifiable):
	default:
		return err
	}

	if draft.CategoryID == 0 {
		draft.CategoryID, err = chooseCategory(ctx, prompter, categories, draft.Type, suggestion, yes)
		if err != nil {
			return err
		}
	}

	overridden := suggestion != nil && (!suggestion.HasSuggestion() || *suggestion.SuggestedCategoryID != draft.CategoryID)
	if overridden && reason == "" && !yes {
		if reason, err = prompter.Ask(ctx, "Reason for choosing "+name(draft.CategoryID), ""); err != nil {
			return err
		}
	}

	preview, err := a.engine.Validate(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.RenderValidation(preview))

	if !preview.IsValid && !force {
		return common.NewUserError("transaction not recorded; fix the errors above or use --force",
			fmt.Errorf("%w: %d errors", common.ErrInvalidTransaction, len(preview.Errors)))
	}
	if !yes {
		ok, err := prompter.Confirm(ctx, fmt.Sprintf("Record %s as %s?", cli.FormatAmount(draft.Amount), name(draft.CategoryID)), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, cli.FormatInfo("Nothing recorded."))
			return nil
		}
	}

	submitted, err := a.engine.Submit(ctx, engine.SubmitRequest{
		Draft:      draft,
		Suggestion: suggestion,
		Reason:     reason,
		Force:      force,
	})
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Recorded transaction %s", submitted.TransactionID)
	if submitted.Overridden {
		message += " (manual override)"
	}
	fmt.Fprintln(out, cli.FormatSuccess(message))
	if submitted.Validation.RequiresApproval {
		fmt.Fprintln(out, cli.FormatWarning("Awaiting approval: "+submitted.Validation.ApprovalReason))
	}
	if submitted.LedgerErr != nil {
		fmt.Fprintln(out, cli.FormatWarning("Classification ledger not updated: "+submitted.LedgerErr.Error()))
	}
	return nil
}

func promptMissing(ctx context.Context, prompter *cli.Prompter, draft *model.Transaction) error {
	if strings.TrimSpace(draft.Description) == "" {
		description, err := prompter.Ask(ctx, "Description", "")
		if err != nil {
			return err
		}
		draft.Description = description
	}
	if draft.Amount.IsZero() {
		raw, err := prompter.Ask(ctx, "Amount", "")
		if err != nil {
			return err
		}
		if draft.Amount, err = parseAmount(raw); err != nil {
			return err
		}
	}
	return nil
}

// chooseCategory picks the category for a draft given without --category.
func chooseCategory(ctx context.Context, prompter *cli.Prompter, categories []model.Category,
	txnType model.TransactionType, suggestion *model.ClassificationResult, yes bool,
) (int64, error) {
	var suggested *int64
	if suggestion != nil {
		suggested = suggestion.SuggestedCategoryID
	}

	if yes {
		if suggested == nil {
			return 0, common.NewUserError("no category suggested; pass --category", common.ErrInvalidInput)
		}
		return *suggested, nil
	}

	usable := make([]model.Category, 0, len(categories))
	for _, cat := range categories {
		if cat.Type.AppliesTo(txnType) {
			usable = append(usable, cat)
		}
	}
	return prompter.ChooseCategory(ctx, usable, suggested)
}
