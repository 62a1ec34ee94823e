package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"json number", json.Number("12.34"), "12.34"},
		{"string", " 7.5 ", "7.5"},
		{"garbage string", "abc", "0"},
		{"empty string", "", "0"},
		{"float", 2.5, "2.5"},
		{"int", 3, "3"},
		{"bool", true, "0"},
		{"decimal", decimal.RequireFromString("1.01"), "1.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" grocery ")
	if !ok || c != Grocery {
		t.Errorf("ParseCategory = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("Electronics"); ok {
		t.Error("unknown category accepted")
	}
	if Miscellaneous.BudgetField() != "miscellaneous" {
		t.Errorf("BudgetField = %q", Miscellaneous.BudgetField())
	}
}

func TestBudgetLimitNil(t *testing.T) {
	var b *BudgetRecord
	if !b.Limit(Grocery).IsZero() {
		t.Error("nil budget should have zero limits")
	}
}

func TestKindCollection(t *testing.T) {
	for _, k := range SubscribedKinds {
		if k.Collection() == "" {
			t.Errorf("kind %q has no collection", k)
		}
	}
}
