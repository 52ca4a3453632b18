package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// ErrInvalidChoice is returned when an answer names nothing on offer.
var ErrInvalidChoice = errors.New("invalid choice")

// Prompter asks the questions of the withdrawal entry form on a terminal.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter. Nil streams default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{reader: NewNonBlockingReader(reader), writer: writer}
}

// Ask prints label and returns the trimmed answer, or def when it is blank.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt += " [" + def + "]"
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		answer, err := p.Ask(ctx, question+" ("+hint+")", "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes", "ya":
			return true, nil
		case "n", "no", "tidak":
			return false, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning("Please answer y or n")); err != nil {
			return false, fmt.Errorf("failed to write warning: %w", err)
		}
	}
}

// ChooseCategory lists categories and returns the one picked by number or
// name. A blank answer accepts suggested when it is set.
func (p *Prompter) ChooseCategory(ctx context.Context, categories []model.Category, suggested *int64) (int64, error) {
	if len(categories) == 0 {
		return 0, fmt.Errorf("%w: no categories to choose from", ErrInvalidChoice)
	}

	var b strings.Builder
	for i, cat := range categories {
		marker := "  "
		if suggested != nil && *suggested == cat.ID {
			marker = SuccessStyle.Render("→ ")
		}
		fmt.Fprintf(&b, "%s[%d] %s %s\n", marker, i+1, cat.Name, SubtleStyle.Render("("+string(cat.Type)+")"))
	}
	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return 0, fmt.Errorf("failed to write categories: %w", err)
	}

	def := ""
	if suggested != nil {
		for i, cat := range categories {
			if cat.ID == *suggested {
				def = strconv.Itoa(i + 1)
			}
		}
	}

	for attempts := 0; attempts < 3; attempts++ {
		answer, err := p.Ask(ctx, "Category", def)
		if err != nil {
			return 0, err
		}
		if id, ok := pickCategory(categories, answer); ok {
			return id, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("No category matches %q", answer))); err != nil {
			return 0, fmt.Errorf("failed to write warning: %w", err)
		}
	}
	return 0, ErrInvalidChoice
}

func pickCategory(categories []model.Category, answer string) (int64, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(categories) {
			return categories[n-1].ID, true
		}
		return 0, false
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, answer) {
			return cat.ID, true
		}
	}
	return 0, false
}

// RenderClassification describes a suggestion. name resolves category ids.
func RenderClassification(result model.ClassificationResult, name func(int64) string) string {
	if !result.HasSuggestion() {
		return RenderBox("Suggestion", SubtleStyle.Render(result.Reasoning))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Category:   %s\n", SuccessStyle.Render(name(*result.SuggestedCategoryID)))
	fmt.Fprintf(&b, "Pattern:    %s\n", result.PatternMatched)
	fmt.Fprintf(&b, "Confidence: %s\n", confidenceStyle(result.ConfidenceScore).Render(fmt.Sprintf("%.1f%%", result.ConfidenceScore)))
	fmt.Fprintf(&b, "Reasoning:  %s", result.Reasoning)
	if len(result.PatternMatches) > 1 {
		b.WriteString("\n\nOther candidates:")
		for _, m := range result.PatternMatches {
			if result.PatternID != nil && m.PatternID == *result.PatternID {
				continue
			}
			fmt.Fprintf(&b, "\n  • %s (%.1f)", m.PatternName, m.Score)
		}
	}
	return RenderBox("Suggestion", b.String())
}

func confidenceStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return SuccessStyle
	case score >= 50:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// RenderValidation lists errors, warnings and any approval requirement.
func RenderValidation(result model.ValidationResult) string {
	lines := make([]string, 0, len(result.Errors)+len(result.Warnings)+1)
	for _, issue := range result.Errors {
		lines = append(lines, FormatError(issue.Message))
	}
	for _, issue := range result.Warnings {
		lines = append(lines, FormatWarning(issue.Message))
	}
	if result.RequiresApproval {
		lines = append(lines, FormatInfo("Requires approval: "+result.ApprovalReason))
	}
	if len(lines) == 0 {
		lines = append(lines, FormatSuccess("Transaction passes every rule"))
	}
	return strings.Join(lines, "\n")
}
