package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     string
	}{
		{"0", "MVR", "MVR 0.00"},
		{"80", "MVR", "MVR 80.00"},
		{"1234.5", "MVR", "MVR 1,234.50"},
		{"1234567.891", "", "1,234,567.89"},
		{"-20.005", "MVR", "MVR -20.01"},
		{"-0.001", "MVR", "MVR 0.00"},
	}
	for _, tt := range tests {
		got := FormatMoney(decimal.RequireFromString(tt.in), tt.currency)
		if got != tt.want {
			t.Errorf("FormatMoney(%s, %q) = %q, want %q", tt.in, tt.currency, got, tt.want)
		}
	}
}

func TestFormatSignedMoney(t *testing.T) {
	if got := FormatSignedMoney(decimal.NewFromInt(5), "MVR"); got != "+MVR 5.00" {
		t.Errorf("positive = %q", got)
	}
	if got := FormatSignedMoney(decimal.NewFromInt(-5), "MVR"); got != "-MVR 5.00" {
		t.Errorf("negative = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4321, "-4,321"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRatioAndPercent(t *testing.T) {
	d := decimal.RequireFromString
	if got := Ratio(d("80"), d("100")); got != 0.8 {
		t.Errorf("Ratio(80,100) = %v", got)
	}
	if got := Ratio(d("150"), d("100")); got != 1 {
		t.Errorf("Ratio over limit = %v, want 1", got)
	}
	if got := Ratio(d("10"), decimal.Zero); got != 0 {
		t.Errorf("Ratio with zero whole = %v", got)
	}
	if got := FormatPercent(PercentOf(d("80"), d("100"))); got != "80.0%" {
		t.Errorf("percent = %q", got)
	}
	if got := PercentOf(d("5"), decimal.Zero); !got.IsZero() {
		t.Errorf("PercentOf zero whole = %s", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Corner Shop", 6); got != "Corne…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Spent"},
		Rows: [][]string{
			{"Grocery", "80.00"},
			{"---"},
			{"Total", "1,080.00"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Grocery") || !strings.Contains(out, "1,080.00") {
		t.Fatalf("table missing cells:\n%s", out)
	}
}

func TestRenderSparklineLength(t *testing.T) {
	vals := []decimal.Decimal{decimal.Zero, decimal.NewFromInt(5), decimal.NewFromInt(10)}
	if got := []rune(RenderSparkline(vals)); len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Fatalf("sparkline = %q", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Fatal("empty sparkline should be empty")
	}
}
