package pattern

import (
	"testing"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []model.Pattern
		txn          model.Transaction
		wantIDs      []int64
		wantKeywords []string
	}{
		{
			name:         "case insensitive substring match",
			patterns:     []model.Pattern{payrollPattern()},
			txn:          withdrawal(5_000_000, "Pembayaran GAJI karyawan"),
			wantIDs:      []int64{1},
			wantKeywords: []string{"gaji"},
		},
		{
			name:         "multiple alternatives hit",
			patterns:     []model.Pattern{payrollPattern()},
			txn:          withdrawal(5_000_000, "payroll gaji oktober"),
			wantIDs:      []int64{1},
			wantKeywords: []string{"gaji", "payroll"},
		},
		{
			name:     "amount below range",
			patterns: []model.Pattern{payrollPattern()},
			txn:      withdrawal(999_999, "gaji"),
		},
		{
			name:     "amount above range",
			patterns: []model.Pattern{payrollPattern()},
			txn:      withdrawal(10_000_001, "gaji"),
		},
		{
			name:         "range bounds are inclusive",
			patterns:     []model.Pattern{payrollPattern()},
			txn:          withdrawal(10_000_000, "gaji"),
			wantIDs:      []int64{1},
			wantKeywords: []string{"gaji"},
		},
		{
			name: "inactive pattern ignored",
			patterns: func() []model.Pattern {
				p := payrollPattern()
				p.IsActive = false
				return []model.Pattern{p}
			}(),
			txn: withdrawal(5_000_000, "gaji"),
		},
		{
			name:     "empty description has no keyword evidence",
			patterns: []model.Pattern{payrollPattern()},
			txn:      withdrawal(5_000_000, "   "),
		},
		{
			name: "open upper bound",
			patterns: func() []model.Pattern {
				p := payrollPattern()
				p.AmountMax = nil
				return []model.Pattern{p}
			}(),
			txn:          withdrawal(50_000_000, "gaji direksi"),
			wantIDs:      []int64{1},
			wantKeywords: []string{"gaji"},
		},
		{
			name:     "no keyword hit",
			patterns: []model.Pattern{payrollPattern()},
			txn:      withdrawal(5_000_000, "listrik kantor"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(NewSnapshot(tt.patterns))
			matches := m.Match(tt.txn)

			var ids []int64
			for _, match := range matches {
				ids = append(ids, match.Pattern.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			if len(tt.wantKeywords) > 0 {
				require.Len(t, matches, 1)
				assert.Equal(t, tt.wantKeywords, matches[0].Keywords)
			}
		})
	}
}

func TestMatcher_NilSnapshot(t *testing.T) {
	m := NewMatcher(nil)
	assert.Empty(t, m.Match(withdrawal(100, "gaji")))
}
