package id_test

import (
	"strings"
	"testing"

	"github.com/rabilrbl/taskboard/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"TaskID", id.NewTaskID, "task_"},
		{"BoardID", id.NewBoardID, "board_"},
		{"StatusLabelID", id.NewStatusLabelID, "stat_"},
		{"HistoryID", id.NewHistoryID, "hist_"},
		{"UserID", id.NewUserID, "user_"},
		{"SubscriptionID", id.NewSubscriptionID, "rpt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixTask)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixTask {
		t.Errorf("expected prefix %q, got %q", id.PrefixTask, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"TaskID", id.NewTaskID, id.ParseTaskID},
		{"BoardID", id.NewBoardID, id.ParseBoardID},
		{"StatusLabelID", id.NewStatusLabelID, id.ParseStatusLabelID},
		{"HistoryID", id.NewHistoryID, id.ParseHistoryID},
		{"UserID", id.NewUserID, id.ParseUserID},
		{"SubscriptionID", id.NewSubscriptionID, id.ParseSubscriptionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
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
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseTaskID rejects board_", id.NewBoardID().String(), id.ParseTaskID},
		{"ParseBoardID rejects stat_", id.NewStatusLabelID().String(), id.ParseBoardID},
		{"ParseStatusLabelID rejects hist_", id.NewHistoryID().String(), id.ParseStatusLabelID},
		{"ParseHistoryID rejects user_", id.NewUserID().String(), id.ParseHistoryID},
		{"ParseUserID rejects rpt_", id.NewSubscriptionID().String(), id.ParseUserID},
		{"ParseSubscriptionID rejects task_", id.NewTaskID().String(), id.ParseSubscriptionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID

	if !nilID.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID String() = %q, want empty", nilID.String())
	}
	if nilID.Prefix() != "" {
		t.Errorf("nil ID Prefix() = %q, want empty", nilID.Prefix())
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := id.NewTaskID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}

func TestScanValue(t *testing.T) {
	original := id.NewUserID()

	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", scanned.String(), original.String())
	}

	// NULL scans to the nil ID; nil ID stores NULL.
	var fromNull id.ID
	if err := fromNull.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !fromNull.IsNil() {
		t.Error("Scan(nil) should produce the nil ID")
	}

	nv, err := id.Nil.Value()
	if err != nil {
		t.Fatalf("Nil.Value: %v", err)
	}
	if nv != nil {
		t.Errorf("Nil.Value() = %v, want nil", nv)
	}
}
