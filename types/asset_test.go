package types

import (
	"math"
	"testing"
	"time"
)

func TestAssetFormat(t *testing.T) {
	tests := []struct {
		name  string
		asset Asset
		units int64
		want  string
	}{
		{"two decimals", NewAsset("usdc", 2), 4900, "49.00"},
		{"six decimals", NewAsset("usdc", 6), 1500000, "1.500000"},
		{"zero decimals", NewAsset("pts", 0), 100, "100"},
		{"sub unit", NewAsset("eth", 3), 7, "0.007"},
		{"negative", NewAsset("usd", 2), -150, "-1.50"},
		{"min int", NewAsset("x", 0), math.MinInt64, "-9223372036854775808"},
		{"min int scaled", NewAsset("x", 2), math.MinInt64, "-92233720368547758.08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.asset.Format(tt.units); got != tt.want {
				t.Errorf("Format(%d): got %s, want %s", tt.units, got, tt.want)
			}
		})
	}
}

func TestAssetValidate(t *testing.T) {
	if err := NewAsset("USDC", 6).Validate(); err != nil {
		t.Errorf("expected valid asset, got %v", err)
	}
	if err := (Asset{}).Validate(); err == nil {
		t.Error("expected error for empty symbol")
	}
	if err := NewAsset("USDC", 19).Validate(); err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestAssetEqual(t *testing.T) {
	a := Asset{Symbol: "usdc", Decimals: 6}
	if !a.Equal(NewAsset("USDC", 6)) {
		t.Error("expected case-insensitive match")
	}
	if a.Equal(NewAsset("USDC", 2)) {
		t.Error("expected decimals mismatch")
	}
	if got := NewAsset(" usdc ", 2).Display(250); got != "2.50 USDC" {
		t.Errorf("Display: got %q", got)
	}
}

func TestEntity(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	e := NewEntityAt(at)
	if !e.CreatedAt.Equal(at) || e.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt: got %v", e.CreatedAt)
	}

	later := at.Add(time.Hour)
	e.Touch(later)
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt: got %v, want %v", e.UpdatedAt, later)
	}
	if !e.CreatedAt.Equal(at) {
		t.Error("Touch must not change CreatedAt")
	}
	if !e.IsStale(time.Minute) {
		t.Error("expected entity from 2026-01-02 to be stale")
	}
}
