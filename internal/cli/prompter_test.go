package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories() []model.Category {
	return []model.Category{
		{ID: 10, Name: "Gaji", Type: model.CategoryTypeExpense},
		{ID: 11, Name: "ATK", Type: model.CategoryTypeExpense},
		{ID: 12, Name: "Listrik", Type: model.CategoryTypeExpense},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nrenovasi kantor\n"), &out)
	ctx := context.Background()

	answer, err := p.Ask(ctx, "Reason", "koreksi")
	require.NoError(t, err)
	assert.Equal(t, "koreksi", answer)

	answer, err = p.Ask(ctx, "Reason", "koreksi")
	require.NoError(t, err)
	assert.Equal(t, "renovasi kantor", answer)
	assert.Contains(t, out.String(), "Reason [koreksi]")
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"indonesian yes", "ya\n", false, true},
		{"no", "n\n", true, false},
		{"default", "\n", true, true},
		{"retry after nonsense", "maybe\nyes\n", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
			got, err := p.Confirm(context.Background(), "Record anyway?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompter_ChooseCategory(t *testing.T) {
	tests := []struct {
		suggested *int64
		name      string
		input     string
		want      int64
	}{
		{int64Ptr(11), "accept suggestion", "\n", 11},
		{int64Ptr(11), "pick by number", "3\n", 12},
		{nil, "pick by name", "gaji\n", 10},
		{nil, "retry after unknown", "Sewa\n1\n", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)
			got, err := p.ChooseCategory(context.Background(), testCategories(), tt.suggested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[2] ATK")
		})
	}
}

func TestPrompter_ChooseCategoryGivesUp(t *testing.T) {
	p := NewPrompter(strings.NewReader("x\ny\nz\n"), &bytes.Buffer{})
	_, err := p.ChooseCategory(context.Background(), testCategories(), nil)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = p.ChooseCategory(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{})
	_, err := p.Confirm(ctx, "Record anyway?", false)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestRenderClassification(t *testing.T) {
	names := map[int64]string{10: "Gaji", 11: "ATK"}
	name := func(id int64) string { return names[id] }

	result := model.ClassificationResult{
		SuggestedCategoryID: int64Ptr(10),
		PatternID:           int64Ptr(1),
		PatternMatched:      "Gaji Karyawan",
		ConfidenceScore:     92.5,
		Reasoning:           `matched "gaji"`,
		PatternMatches: []model.PatternMatch{
			{PatternID: 1, PatternName: "Gaji Karyawan", Score: 92.5},
			{PatternID: 2, PatternName: "Honor Pengurus", Score: 70},
		},
	}
	out := RenderClassification(result, name)
	assert.Contains(t, out, "Gaji")
	assert.Contains(t, out, "92.5%")
	assert.Contains(t, out, "Honor Pengurus (70.0)")

	none := RenderClassification(model.ClassificationResult{Reasoning: model.ReasonNoMatch}, name)
	assert.Contains(t, none, model.ReasonNoMatch)
}

func TestRenderValidation(t *testing.T) {
	out := RenderValidation(model.ValidationResult{
		Errors:           []model.ValidationIssue{{Code: model.IssueMaxTransactionAmount, Message: "too large"}},
		Warnings:         []model.ValidationIssue{{Code: model.IssueMaxDailyAmount, Message: "near daily limit"}},
		RequiresApproval: true,
		ApprovalReason:   model.ApprovalReasonPolicy,
	})
	assert.Contains(t, out, "too large")
	assert.Contains(t, out, "near daily limit")
	assert.Contains(t, out, model.ApprovalReasonPolicy)

	assert.Contains(t, RenderValidation(model.ValidationResult{IsValid: true}), "passes every rule")
}
