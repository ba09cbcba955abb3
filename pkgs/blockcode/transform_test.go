package blockcode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundToBase(t *testing.T) {
	tests := []struct {
		x    float64
		base int
		want int
	}{
		{x: 64, base: 8, want: 64},
		{x: 12, base: 8, want: 16},
		{x: 11, base: 8, want: 8},
		{x: 4, base: 8, want: 8},   // floored at base
		{x: 1, base: 8, want: 8},   // floored at base
		{x: 20, base: 8, want: 24}, // half rounds away from zero
		{x: 100, base: 16, want: 96},
		{x: 300, base: 32, want: 288},
	}

	for _, tt := range tests {
		if got := RoundToBase(tt.x, tt.base); got != tt.want {
			t.Errorf("RoundToBase(%v, %d) = %d, want %d", tt.x, tt.base, got, tt.want)
		}
	}
}

func TestSmartRound(t *testing.T) {
	tests := []struct {
		x    float64
		want int
	}{
		{x: 64, want: 64},    // narrow widths snap to 8
		{x: 100, want: 104},  // 100/8 rounds up
		{x: 200, want: 208},  // above 128 the base is 16
		{x: 300, want: 288},  // above 256 the base is 32
		{x: 2, want: 8},      // never below the base
	}

	for _, tt := range tests {
		if got := SmartRound(tt.x); got != tt.want {
			t.Errorf("SmartRound(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestSuperVoVSplit(t *testing.T) {
	b := parseOne(t, "SuperVoVK3L2(32,64,2,48,7)", NewRegistry())
	sv := b.(*SuperVoVKXLX)

	split := sv.Split(4)
	want := "SuperVoVK3L2(32,64,2,48,2)SuperVoVK3L2(64,64,1,48,5)"
	if split != want {
		t.Errorf("Split(4) = %q, want %q", split, want)
	}

	// The split result is itself a valid code whose halves chain.
	halves, err := Parse(split, NewRegistry())
	if err != nil {
		t.Fatalf("split result does not parse: %v", err)
	}
	wantAttrs := []blockSummary{
		{Type: "SuperVoVK3L2", In: 32, Out: 64, Stride: 2, Kernel: 3, Bottleneck: 48, SubLayers: 2, Children: 2},
		{Type: "SuperVoVK3L2", In: 64, Out: 64, Stride: 1, Kernel: 3, Bottleneck: 48, SubLayers: 5, Children: 5},
	}
	if diff := cmp.Diff(wantAttrs, summarizeAll(halves)); diff != "" {
		t.Errorf("split halves mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitBelowThreshold(t *testing.T) {
	b := parseOne(t, "SuperVoVK3L2(32,64,2,48,3)", NewRegistry())
	if got := b.(*SuperVoVKXLX).Split(4); got != "SuperVoVK3L2(32,64,2,48,3)" {
		t.Errorf("Split below threshold = %q, want the unchanged canonical string", got)
	}
}

func TestSuperConvSplit(t *testing.T) {
	b := parseOne(t, "SuperConvK3BNRELU(3,32,2,6)", NewRegistry())
	split := b.(*SuperConvKXBNRELU).Split(6)
	want := "SuperConvK3BNRELU(3,32,2,3)SuperConvK3BNRELU(32,32,1,3)"
	if split != want {
		t.Errorf("Split(6) = %q, want %q", split, want)
	}
}

func TestStructureScaleIdentity(t *testing.T) {
	// Factor 1.0 on base-aligned widths is a no-op.
	codes := []string{
		"SuperVoVK3L2(32,64,2,48,3)",
		"SuperConvK3BNRELU(3,32,2,2)",
	}
	for _, code := range codes {
		b := parseOne(t, code, NewRegistry())
		if got := b.(Scaler).StructureScale(1.0, 1.0); got != code {
			t.Errorf("StructureScale(1,1) on %q = %q, want identity", code, got)
		}
	}
}

func TestStructureScale(t *testing.T) {
	b := parseOne(t, "SuperVoVK3L2(32,64,2,48,4)", NewRegistry())
	sv := b.(*SuperVoVKXLX)

	// Doubling widths and halving depth: 128 and 96 stay 8-aligned,
	// sub_layers rounds to 2.
	got := sv.StructureScale(2.0, 0.5)
	want := "SuperVoVK3L2(32,128,2,96,2)"
	if got != want {
		t.Errorf("StructureScale(2, 0.5) = %q, want %q", got, want)
	}

	// Depth never scales below one stage.
	got = sv.StructureScale(1.0, 0.01)
	want = "SuperVoVK3L2(32,64,2,48,1)"
	if got != want {
		t.Errorf("StructureScale(1, 0.01) = %q, want %q", got, want)
	}

	// The receiver is untouched by scaling.
	if sv.String() != "SuperVoVK3L2(32,64,2,48,4)" {
		t.Errorf("receiver mutated: %q", sv.String())
	}
}
