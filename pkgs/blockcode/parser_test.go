package blockcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// blockSummary is a comparable snapshot of a block's decoded attributes.
// Name is captured only when it was explicitly authored, so summaries are
// stable across decodes that synthesize fresh names.
type blockSummary struct {
	Type       string
	Name       string
	In         int
	Out        int
	Stride     int
	Kernel     int
	Bottleneck int
	SubLayers  int
	Children   int
}

func summarize(b Block) blockSummary {
	s := blockSummary{
		Type:   b.TypeName(),
		In:     b.InChannels(),
		Out:    b.OutChannels(),
		Stride: b.Stride(),
	}
	switch v := b.(type) {
	case *ConvKX:
		s.Kernel = v.kernelSize
		if v.named {
			s.Name = v.name
		}
	case *BN:
		if v.named {
			s.Name = v.name
		}
	case *RELU:
		if v.named {
			s.Name = v.name
		}
	case *SE:
		if v.named {
			s.Name = v.name
		}
	case *OSABlock:
		s.Children = len(v.inner)
		if v.named {
			s.Name = v.name
		}
	case *OSAResBlock:
		s.Children = len(v.inner)
		if v.named {
			s.Name = v.name
		}
	case *SuperConvKXBNRELU:
		s.Kernel = v.kernelSize
		s.SubLayers = v.subLayers
		s.Children = len(v.inner)
		if v.named {
			s.Name = v.name
		}
	case *SuperVoVKXLX:
		s.Kernel = v.kernelSize
		s.Bottleneck = v.bottleneckChannels
		s.SubLayers = v.subLayers
		s.Children = len(v.inner)
		if v.named {
			s.Name = v.name
		}
	}
	return s
}

func summarizeAll(blocks []Block) []blockSummary {
	out := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		out[i] = summarize(b)
	}
	return out
}

func TestParseLeafSequence(t *testing.T) {
	// The stem of every network in this grammar: conv, norm, activation.
	code := "ConvKX(3,64,3,2)BN(64)RELU(64)"
	blocks, err := Parse(code, NewRegistry())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", code, err)
	}

	want := []blockSummary{
		{Type: "ConvKX", In: 3, Out: 64, Stride: 2, Kernel: 3},
		{Type: "BN", In: 64, Out: 64, Stride: 1},
		{Type: "RELU", In: 64, Out: 64, Stride: 1},
	}
	if diff := cmp.Diff(want, summarizeAll(blocks)); diff != "" {
		t.Errorf("parsed blocks mismatch (-want +got):\n%s", diff)
	}

	if got := Render(blocks); got != code {
		t.Errorf("Render = %q, want %q", got, code)
	}
}

func TestParseEmptyCode(t *testing.T) {
	blocks, err := Parse("", NewRegistry())
	if err != nil {
		t.Fatalf("Parse(\"\") error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("Parse(\"\") returned %d blocks, want 0", len(blocks))
	}
}

func TestParseTotality(t *testing.T) {
	// Parsing the concatenation of N serialized tokens yields exactly N
	// blocks in order, for every N up to 20.
	reg := NewRegistry()
	for n := 0; n <= 20; n++ {
		code := strings.Repeat("ConvKX(3,64,3,2)", n)
		blocks, err := Parse(code, reg)
		if err != nil {
			t.Fatalf("Parse of %d tokens error: %v", n, err)
		}
		if len(blocks) != n {
			t.Errorf("Parse of %d tokens yielded %d blocks", n, len(blocks))
		}
	}
}

func TestParseExplicitBlockNames(t *testing.T) {
	code := "ConvKX(stem|3,64,3,2)BN(64)"
	blocks, err := Parse(code, NewRegistry())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", code, err)
	}

	if got := blocks[0].BlockName(); got != "stem" {
		t.Errorf("explicit block name = %q, want %q", got, "stem")
	}
	if got := blocks[0].String(); got != "ConvKX(stem|3,64,3,2)" {
		t.Errorf("canonical string = %q, want name preserved", got)
	}

	// The unnamed block gets a synthesized graph-unique name.
	if blocks[1].BlockName() == "" {
		t.Error("unnamed block must receive a synthesized name")
	}
	if blocks[1].BlockName() == blocks[0].BlockName() {
		t.Error("synthesized name collides with explicit name")
	}
}

func TestParseDuplicateBlockName(t *testing.T) {
	code := "ConvKX(stem|3,64,3,2)ConvKX(stem|64,64,3,1)"
	_, err := Parse(code, NewRegistry())
	var invalid *InvalidParameterError
	if !errors.As(err, &invalid) {
		t.Fatalf("Parse(%q) error = %v, want InvalidParameterError", code, err)
	}
	if invalid.Field != "stem" {
		t.Errorf("error field = %q, want %q", invalid.Field, "stem")
	}
}

func TestParseUnknownBlockType(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		remainder string
	}{
		{name: "unknown head", code: "Bogus(1,2)", remainder: "Bogus(1,2)"},
		{name: "unknown after valid token", code: "ConvKX(3,64,3,2)Bogus(1)", remainder: "Bogus(1)"},
		{name: "bare text", code: "notacode", remainder: "notacode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.code, NewRegistry())
			var unknown *UnknownBlockTypeError
			if !errors.As(err, &unknown) {
				t.Fatalf("Parse(%q) error = %v, want UnknownBlockTypeError", tt.code, err)
			}
			if unknown.Remainder != tt.remainder {
				t.Errorf("offending remainder = %q, want %q", unknown.Remainder, tt.remainder)
			}
		})
	}
}

func TestParseAmbiguousRegistry(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.register("ConvKX", decodeConvKX)
	reg.register("ConvKX", decodeConvKX)

	_, err := Parse("ConvKX(3,64,3,2)", reg)
	var ambiguous *AmbiguousGrammarError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want AmbiguousGrammarError", err)
	}
	want := []string{"ConvKX", "ConvKX"}
	if diff := cmp.Diff(want, ambiguous.Matches); diff != "" {
		t.Errorf("competing types mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "wrong arity", code: "ConvKX(3,64,3)"},
		{name: "non-numeric field", code: "ConvKX(a,64,3,2)"},
		{name: "trailing comma", code: "BN(64,)"},
		{name: "zero sub layers", code: "SuperConvK3BNRELU(3,64,2,0)"},
		{name: "zero bottleneck", code: "SuperVoVK3L2(32,64,2,0,3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.code, NewRegistry())
			var invalid *InvalidParameterError
			if !errors.As(err, &invalid) {
				t.Fatalf("Parse(%q) error = %v, want InvalidParameterError", tt.code, err)
			}
		})
	}
}

func TestParseUnbalancedCode(t *testing.T) {
	_, err := Parse("ConvKX(3,64,3,2", NewRegistry())
	var malformed *MalformedCodeError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedCodeError", err)
	}
}

func TestParseNestingDepthCeiling(t *testing.T) {
	depth := maxNestingDepth + 4
	code := strings.Repeat("OSABlock(", depth) + strings.Repeat(")", depth)

	_, err := Parse(code, NewRegistry())
	var malformed *MalformedCodeError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedCodeError for runaway nesting", err)
	}
	if !strings.Contains(malformed.Message, "depth ceiling") {
		t.Errorf("error message %q does not mention the depth ceiling", malformed.Message)
	}
}

func TestParseContainerBlocks(t *testing.T) {
	code := "OSAResBlock(ConvKX(32,48,3,2)BN(48)RELU(48))"
	blocks, err := Parse(code, NewRegistry())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", code, err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d top-level blocks, want 1", len(blocks))
	}

	res, ok := blocks[0].(*OSAResBlock)
	if !ok {
		t.Fatalf("block is %T, want *OSAResBlock", blocks[0])
	}
	if len(res.Inner()) != 3 {
		t.Errorf("container holds %d blocks, want 3", len(res.Inner()))
	}
	// Channel flow and stride are derived from the inner sequence.
	if res.InChannels() != 32 || res.OutChannels() != 48 || res.Stride() != 2 {
		t.Errorf("container shape = (%d,%d,%d), want (32,48,2)",
			res.InChannels(), res.OutChannels(), res.Stride())
	}
	if got := res.String(); got != code {
		t.Errorf("container String = %q, want %q", got, code)
	}
}

func TestRestrictedRegistry(t *testing.T) {
	// A grammar with only width markers rejects convolution tokens.
	reg := NewEmptyRegistry()
	reg.register("BN", decodeWidthMarker("BN", func(b baseBlock) Block { return &BN{baseBlock: b} }))

	if _, err := Parse("BN(64)", reg); err != nil {
		t.Fatalf("restricted registry failed on its own type: %v", err)
	}
	_, err := Parse("ConvKX(3,64,3,2)", reg)
	var unknown *UnknownBlockTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownBlockTypeError", err)
	}
}
