package cli

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rp 0"},
		{"950", "Rp 950"},
		{"1000", "Rp 1.000"},
		{"1500000", "Rp 1.500.000"},
		{"150000.5", "Rp 150.000,50"},
		{"-25000", "-Rp 25.000"},
		{"123456789.99", "Rp 123.456.789,99"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatHelpersKeepMessage(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}
