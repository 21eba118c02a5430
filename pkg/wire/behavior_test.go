package wire

import (
	"testing"
)

func TestBehaviorCapabilities(t *testing.T) {
	tests := []struct {
		behavior    Behavior
		hasIdentity bool
		hasState    bool
		wideCodes   bool
	}{
		{BehaviorDefault, false, false, false},
		{BehaviorState, false, true, false},
		{BehaviorStateIdentity, true, true, false},
		{BehaviorDefault | WideCodes, false, false, true},
		{BehaviorState | WideCodes, false, true, true},
		{BehaviorStateIdentity | WideCodes, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.behavior.String(), func(t *testing.T) {
			if !tt.behavior.IsValid() {
				t.Fatalf("behavior %v should be valid", tt.behavior)
			}
			if got := tt.behavior.HasIdentity(); got != tt.hasIdentity {
				t.Errorf("HasIdentity = %v, want %v", got, tt.hasIdentity)
			}
			if got := tt.behavior.HasState(); got != tt.hasState {
				t.Errorf("HasState = %v, want %v", got, tt.hasState)
			}
			if got := tt.behavior.HasWideCodes(); got != tt.wideCodes {
				t.Errorf("HasWideCodes = %v, want %v", got, tt.wideCodes)
			}
		})
	}
}

func TestBehaviorInvalid(t *testing.T) {
	for _, b := range []Behavior{0, 4, WideCodes, WideCodes | 7} {
		if b.IsValid() {
			t.Errorf("behavior 0x%x should be invalid", uint32(b))
		}
		if _, err := VariantForBehavior(b); err == nil {
			t.Errorf("VariantForBehavior(0x%x) should fail", uint32(b))
		}
	}
}

func TestVariantBehaviorRoundTrip(t *testing.T) {
	// The six-way classification must be exact and lossless in both
	// directions.
	seen := make(map[Variant]bool)
	for _, v := range Variants() {
		if seen[v] {
			t.Fatalf("variant %v listed twice", v)
		}
		seen[v] = true

		b := v.Behavior()
		got, err := VariantForBehavior(b)
		if err != nil {
			t.Fatalf("VariantForBehavior(%v) failed: %v", b, err)
		}
		if got != v {
			t.Errorf("behavior %v maps to %v, want %v", b, got, v)
		}
		if v.HasIdentity() != b.HasIdentity() {
			t.Errorf("variant %v identity capability disagrees with behavior", v)
		}
		if v.HasState() != b.HasState() {
			t.Errorf("variant %v state capability disagrees with behavior", v)
		}
		if v.HasWideCodes() != b.HasWideCodes() {
			t.Errorf("variant %v wide-codes capability disagrees with behavior", v)
		}
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 variants, got %d", len(seen))
	}
}

func TestVariantMessageIDs(t *testing.T) {
	for _, v := range Variants() {
		reqID := v.RequestID()
		if reqID == 0 {
			t.Fatalf("variant %v has no request ID", v)
		}
		if v.ReplyID() != reqID+ReplyIDOffset {
			t.Errorf("variant %v reply ID = %d, want %d", v, v.ReplyID(), reqID+ReplyIDOffset)
		}

		got, err := VariantForRequestID(reqID)
		if err != nil {
			t.Fatalf("VariantForRequestID(%d) failed: %v", reqID, err)
		}
		if got != v {
			t.Errorf("request ID %d maps to %v, want %v", reqID, got, v)
		}
	}

	if _, err := VariantForRequestID(2404); err == nil {
		t.Error("request ID 2404 should not map to a variant")
	}
	if _, err := VariantForRequestID(0); err == nil {
		t.Error("request ID 0 should not map to a variant")
	}
}

func TestTruncateCode(t *testing.T) {
	wide := uint64(0xffffffff00000000)
	tests := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{9, 9},
		{-1, -1},
		{0x100000000, 0},
		{int64(wide), 0},
		{0x17fffffff, 0x7fffffff},
		{0x180000000, -0x80000000},
	}

	for _, tt := range tests {
		if got := TruncateCode(tt.in); got != tt.want {
			t.Errorf("TruncateCode(%#x) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
