package services

import (
	"testing"
)

func TestUnitOptions(t *testing.T) {
	if len(UnitOptions) == 0 {
		t.Fatal("UnitOptions should not be empty")
	}

	expected := map[string]bool{"㎡": true, "개": true, "can": true}
	found := make(map[string]bool)
	for _, opt := range UnitOptions {
		if opt == "" {
			t.Error("UnitOptions contains empty string")
		}
		if found[opt] {
			t.Errorf("duplicate unit option %q", opt)
		}
		found[opt] = true
	}
	for k := range expected {
		if !found[k] {
			t.Errorf("expected unit option %q not found", k)
		}
	}
}

func TestMarginPresets(t *testing.T) {
	if len(MarginPresets) == 0 {
		t.Fatal("MarginPresets should not be empty")
	}
	for i := 1; i < len(MarginPresets); i++ {
		if MarginPresets[i] <= MarginPresets[i-1] {
			t.Errorf("MarginPresets not ascending at %d: %v", i, MarginPresets)
		}
	}
	if MarginPresets[0] < 0 {
		t.Errorf("MarginPresets contains negative margin %v", MarginPresets[0])
	}
}
