package blockcode

import (
	"fmt"
	"strings"
)

// superConvKernels are the registered kernel sizes of the conv-stack family.
// K1 is the projection/classifier head shape.
var superConvKernels = []int{1, 3, 5, 7}

// SuperConvKXBNRELU is the composite conv stack family:
// SuperConvK<K>BNRELU(in,out,stride,sub_layers) expands to sub_layers
// repetitions of a kernel-K convolution followed by normalization and
// activation. The declared stride applies to the first convolution only.
type SuperConvKXBNRELU struct {
	baseBlock
	kernelSize int
	subLayers  int
	inner      []Block
}

func (s *SuperConvKXBNRELU) TypeName() string {
	return fmt.Sprintf("SuperConvK%dBNRELU", s.kernelSize)
}

func (s *SuperConvKXBNRELU) KernelSize() int { return s.kernelSize }
func (s *SuperConvKXBNRELU) SubLayers() int  { return s.subLayers }

// Expand returns the leaf sequence synthesized at construction.
func (s *SuperConvKXBNRELU) Expand() []Block { return s.inner }

func (s *SuperConvKXBNRELU) String() string {
	return fmt.Sprintf("%s(%s%d,%d,%d,%d)",
		s.TypeName(), s.namePrefix(), s.inChannels, s.outChannels, s.stride, s.subLayers)
}

// superConvInnerCode synthesizes the leaf-level code a conv stack expands to.
func superConvInnerCode(in, out, stride, kernel, subLayers int) string {
	var sb strings.Builder
	last := in
	current := stride
	for i := 0; i < subLayers; i++ {
		fmt.Fprintf(&sb, "ConvKX(%d,%d,%d,%d)BN(%d)RELU(%d)", last, out, kernel, current, out, out)
		last = out
		current = 1
	}
	return sb.String()
}

func decodeSuperConv(kernel int) decodeFunc {
	typeName := fmt.Sprintf("SuperConvK%dBNRELU", kernel)
	return func(code string, ctx *decodeContext) (Block, string, error) {
		base, body, rest, err := paramBody(typeName, code, ctx)
		if err != nil {
			return nil, "", err
		}
		f, err := intFields(typeName, body, 4)
		if err != nil {
			return nil, "", err
		}
		base.inChannels, base.outChannels, base.stride = f[0], f[1], f[2]
		subLayers := f[3]
		if subLayers < 1 {
			return nil, "", &InvalidParameterError{TypeName: typeName, Field: fmt.Sprint(subLayers), Message: "sub_layers must be positive"}
		}

		inner, err := parseSequence(superConvInnerCode(base.inChannels, base.outChannels, base.stride, kernel, subLayers), ctx)
		if err != nil {
			return nil, "", err
		}
		return &SuperConvKXBNRELU{baseBlock: base, kernelSize: kernel, subLayers: subLayers, inner: inner}, rest, nil
	}
}

// Split subdivides the stack into two sequential codes once subLayers reaches
// threshold: the first child keeps the input channels and stride, the second
// runs at stride 1 from the shared output width. Below the threshold the
// canonical string is returned unchanged.
func (s *SuperConvKXBNRELU) Split(threshold int) string {
	if s.subLayers < threshold {
		return s.String()
	}
	first := threshold / 2
	second := s.subLayers - first
	return fmt.Sprintf("%s(%d,%d,%d,%d)%s(%d,%d,%d,%d)",
		s.TypeName(), s.inChannels, s.outChannels, s.stride, first,
		s.TypeName(), s.outChannels, s.outChannels, 1, second)
}

// StructureScale rewrites the stack with its output width and depth
// multiplicatively rescaled, returning the new code. The receiver is not
// modified.
func (s *SuperConvKXBNRELU) StructureScale(channelScale, subLayerScale float64) string {
	newOut := SmartRound(float64(s.outChannels) * channelScale)
	newSub := scaleSubLayers(s.subLayers, subLayerScale)
	return fmt.Sprintf("%s(%d,%d,%d,%d)", s.TypeName(), s.inChannels, newOut, s.stride, newSub)
}

func (r *Registry) registerSuperConvBlocks() {
	for _, k := range superConvKernels {
		r.register(fmt.Sprintf("SuperConvK%dBNRELU", k), decodeSuperConv(k))
	}
}
