package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/pattern"
	"github.com/Veraticus/koperasi/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage classification patterns",
		Long: `Patterns map keywords in a withdrawal description to a category.

Keywords are a pipe-separated list of alternatives ("gaji|payroll"), matched
case-insensitively as substrings. An optional amount range and frequency
narrow a pattern further; confidence (0-100) is the score it starts from.`,
	}

	cmd.AddCommand(listPatternsCmd())
	cmd.AddCommand(showPatternCmd())
	cmd.AddCommand(createPatternCmd())
	cmd.AddCommand(editPatternCmd())
	cmd.AddCommand(togglePatternCmd())
	cmd.AddCommand(deletePatternCmd())
	cmd.AddCommand(testPatternCmd())

	return cmd
}

func parsePatternID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid pattern id %q", common.ErrInvalidInput, raw)
	}
	return id, nil
}

func listPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patterns, most recently updated first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			var patterns []model.Pattern
			if activeOnly {
				patterns, err = store.GetActivePatterns(ctx)
			} else {
				patterns, err = store.GetPatterns(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			name := categoryNamer(categories)

			out := cmd.OutOrStdout()
			if len(patterns) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No patterns found."))
				return nil
			}

			tw := newTable(out, "ID", "Name", "Keywords", "Category", "Amount", "Confidence", "Active")
			for _, p := range patterns {
				active := "yes"
				if !p.IsActive {
					active = "no"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.0f\t%s\n",
					p.ID, p.Name, p.Keywords, name(p.CategoryID), amountRange(p.AmountMin, p.AmountMax), p.Confidence, active)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("active", false, "only show active patterns")
	return cmd
}

func showPatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			p, err := store.GetPattern(ctx, id)
			if err != nil {
				return err
			}
			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPattern(*p, categoryNamer(categories)))
			return nil
		},
	}
}

func renderPattern(p model.Pattern, name func(int64) string) string {
	frequency := string(p.Frequency)
	if frequency == "" {
		frequency = string(model.FrequencyIrregular)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Keywords:    %s\n", strings.Join(p.Alternatives(), " | "))
	fmt.Fprintf(&b, "Category:    %s\n", name(p.CategoryID))
	fmt.Fprintf(&b, "Amount:      %s\n", amountRange(p.AmountMin, p.AmountMax))
	fmt.Fprintf(&b, "Frequency:   %s\n", frequency)
	fmt.Fprintf(&b, "Confidence:  %.0f\n", p.Confidence)
	fmt.Fprintf(&b, "Active:      %t\n", p.IsActive)
	fmt.Fprintf(&b, "Updated:     %s", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return cli.RenderBox(fmt.Sprintf("Pattern #%d: %s", p.ID, p.Name), b.String())
}

func addPatternFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "pattern name")
	cmd.Flags().StringP("keywords", "k", "", `pipe-separated keywords, e.g. "gaji|payroll"`)
	cmd.Flags().StringP("category", "c", "", "target category name or id")
	cmd.Flags().String("min", "", "smallest matching amount")
	cmd.Flags().String("max", "", "largest matching amount")
	cmd.Flags().String("frequency", "", "frequency hint (daily, weekly, monthly, quarterly, yearly, irregular)")
	cmd.Flags().Float64("confidence", 70, "base confidence score (0-100)")
	cmd.Flags().Bool("inactive", false, "create the pattern disabled")
}

// applyPatternFlags copies the changed pattern flags onto p. With all set,
// every flag is applied.
func applyPatternFlags(cmd *cobra.Command, store *storage.SQLiteStorage, p *model.Pattern, all bool) error {
	flags := cmd.Flags()
	changed := func(name string) bool { return all || flags.Changed(name) }

	if changed("name") {
		p.Name, _ = flags.GetString("name")
	}
	if changed("keywords") {
		p.Keywords, _ = flags.GetString("keywords")
	}
	if changed("frequency") {
		freq, _ := flags.GetString("frequency")
		p.Frequency = model.Frequency(strings.ToLower(freq))
	}
	if changed("confidence") {
		p.Confidence, _ = flags.GetFloat64("confidence")
	}
	if changed("min") {
		raw, _ := flags.GetString("min")
		d, err := config.ParseAmount(raw)
		if err != nil {
			return err
		}
		p.AmountMin = d
	}
	if changed("max") {
		raw, _ := flags.GetString("max")
		d, err := config.ParseAmount(raw)
		if err != nil {
			return err
		}
		p.AmountMax = d
	}
	if changed("category") {
		ref, _ := flags.GetString("category")
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("%w: --category is required", common.ErrInvalidInput)
		}
		categories, err := store.GetCategories(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		if p.CategoryID, err = resolveCategory(categories, ref); err != nil {
			return err
		}
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = strings.Join(p.Alternatives(), " / ")
	}
	return nil
}

func createPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pattern",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			inactive, _ := cmd.Flags().GetBool("inactive")
			p := model.Pattern{IsActive: !inactive}
			if err := applyPatternFlags(cmd, store, &p, true); err != nil {
				return err
			}
			if err := store.CreatePattern(ctx, &p); err != nil {
				return fmt.Errorf("failed to create pattern: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created pattern %q (id %d)", p.Name, p.ID)))
			return nil
		},
	}
	addPatternFlags(cmd)
	_ = cmd.MarkFlagRequired("keywords")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func editPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a pattern",
		Long: `Change the fields given as flags and leave the rest untouched.

Editing a pattern marks it most recently updated, which makes it win ties
against older patterns with the same score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			p, err := store.GetPattern(ctx, id)
			if err != nil {
				return err
			}
			if err := applyPatternFlags(cmd, store, p, false); err != nil {
				return err
			}
			if err := store.UpdatePattern(ctx, p); err != nil {
				return fmt.Errorf("failed to update pattern: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated pattern %q", p.Name)))
			return nil
		},
	}
	addPatternFlags(cmd)
	return cmd
}

func togglePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable a disabled pattern or disable an enabled one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			p, err := store.GetPattern(ctx, id)
			if err != nil {
				return err
			}
			if err := store.SetPatternActive(ctx, id, !p.IsActive); err != nil {
				return err
			}

			state := "enabled"
			if p.IsActive {
				state = "disabled"
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Pattern %q %s", p.Name, state)))
			return nil
		},
	}
}

func deletePatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a pattern permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete pattern %d?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted."))
					return nil
				}
			}

			if err := store.DeletePattern(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted pattern %d", id)))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	return cmd
}

func testPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <id>",
		Short: "Score one pattern against a description and amount",
		Long: `Run a single pattern, active or not, against a sample withdrawal and show
the score it would produce. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatternID(args[0])
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")
			amountStr, _ := cmd.Flags().GetString("amount")
			amount, err := parseAmount(amountStr)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			p, err := store.GetPattern(ctx, id)
			if err != nil {
				return err
			}
			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			candidate := *p
			candidate.IsActive = true
			snapshot := pattern.NewSnapshot([]model.Pattern{candidate})
			if snapshot.Len() == 0 {
				return fmt.Errorf("%w: pattern %d is malformed", common.ErrInvalidInput, id)
			}

			classifier := pattern.NewClassifier(snapshot, config.Scoring(viper.GetViper()))
			result := classifier.Classify(model.Transaction{
				Description: description,
				Amount:      amount,
				Type:        model.TransactionTypeExpense,
			})
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderClassification(result, categoryNamer(categories)))
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "sample description")
	cmd.Flags().String("amount", "0", "sample amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}
