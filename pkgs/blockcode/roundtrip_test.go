package blockcode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRoundTrip checks the serializer law for every block type: decoding the
// canonical string of a decoded block reproduces the same attributes. The
// strings themselves also match because these codes carry no explicit names.
func TestRoundTrip(t *testing.T) {
	codes := []string{
		"ConvKX(3,64,3,2)",
		"ConvKX(3,64,7,2)",
		"BN(64)",
		"RELU(64)",
		"SE(64)",
		"OSABlock(ConvKX(16,16,3,1)BN(16))",
		"OSAResBlock(ConvKX(16,16,3,1)BN(16)RELU(16))",
		"SuperConvK1BNRELU(512,1000,1,1)",
		"SuperConvK3BNRELU(3,32,2,1)",
		"SuperConvK5BNRELU(32,64,2,3)",
		"SuperConvK7BNRELU(64,96,1,2)",
		"SuperVoVK3L1(32,64,2,48,3)",
		"SuperVoVK3L2(32,64,2,48,2)",
		"SuperVoVK5L3(64,128,2,64,4)",
		"SuperVoVK7L5(128,256,1,96,1)",
	}

	reg := NewRegistry()
	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			first, err := Parse(code, reg)
			if err != nil {
				t.Fatalf("first decode error: %v", err)
			}
			serialized := Render(first)
			if serialized != code {
				t.Errorf("canonical string = %q, want %q", serialized, code)
			}

			second, err := Parse(serialized, reg)
			if err != nil {
				t.Fatalf("second decode error: %v", err)
			}
			if diff := cmp.Diff(summarizeAll(first), summarizeAll(second)); diff != "" {
				t.Errorf("round-trip attributes mismatch (-first +second):\n%s", diff)
			}
		})
	}
}

// TestRoundTripNamedBlocks checks that explicitly authored names survive the
// round trip while synthesized ones stay out of the canonical string.
func TestRoundTripNamedBlocks(t *testing.T) {
	code := "SuperVoVK3L2(stage1|32,64,2,48,2)ConvKX(3,64,3,2)"
	reg := NewRegistry()

	blocks, err := Parse(code, reg)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := Render(blocks); got != code {
		t.Errorf("Render = %q, want %q", got, code)
	}

	again, err := Parse(Render(blocks), reg)
	if err != nil {
		t.Fatalf("re-decode error: %v", err)
	}
	if got := again[0].BlockName(); got != "stage1" {
		t.Errorf("explicit name after round trip = %q, want %q", got, "stage1")
	}
}

// TestSerializationDeterminism: two decodes of the same code serialize
// identically even though their synthesized names differ.
func TestSerializationDeterminism(t *testing.T) {
	code := "SuperVoVK5L2(64,128,2,64,3)BN(128)"
	reg := NewRegistry()

	a, err := Parse(code, reg)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	b, err := Parse(code, reg)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if a[0].BlockName() == b[0].BlockName() {
		t.Error("independent decodes share a synthesized name")
	}
	if Render(a) != Render(b) {
		t.Errorf("serialization differs: %q vs %q", Render(a), Render(b))
	}
}
