package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/vault/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
		prefix  string
	}{
		{"VaultID", id.NewVaultID, id.ParseVaultID, "vault_"},
		{"EventID", id.NewEventID, id.ParseEventID, "vevt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			if !strings.HasPrefix(original.String(), tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, original.String())
			}
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseVaultID(id.NewEventID().String()); err == nil {
		t.Error("ParseVaultID accepted an event ID")
	}
	if _, err := id.ParseEventID(id.NewVaultID().String()); err == nil {
		t.Error("ParseEventID accepted a vault ID")
	}
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() || i.String() != "" || i.Prefix() != "" {
		t.Errorf("zero-value ID should be nil, got %q", i.String())
	}

	val, err := i.Value()
	if err != nil || val != nil {
		t.Errorf("Value(nil): got %v, %v", val, err)
	}

	var scanned id.ID
	if err := scanned.Scan(""); err != nil || !scanned.IsNil() {
		t.Errorf("Scan(\"\"): got %q, %v", scanned.String(), err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type record struct {
		ID id.EventID `json:"id"`
	}

	in := record{ID: id.NewEventID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.ID.String() != in.ID.String() {
		t.Errorf("mismatch: %q != %q", out.ID.String(), in.ID.String())
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewVaultID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var fromString, fromBytes id.ID
	if err := fromString.Scan(val); err != nil {
		t.Fatalf("Scan(string) failed: %v", err)
	}
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if fromString.String() != original.String() || fromBytes.String() != original.String() {
		t.Errorf("scan mismatch: %q, %q, want %q", fromString, fromBytes, original)
	}

	if err := fromString.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
