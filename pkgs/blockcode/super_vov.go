package blockcode

import (
	"fmt"
	"strings"
)

// vovConfig fixes the expansion flags of the OSA family for one registry.
type vovConfig struct {
	useResidual bool
	useBN       bool
	useRELU     bool
	useSE       bool
}

var defaultVoVConfig = vovConfig{useResidual: true, useBN: true, useRELU: true, useSE: false}

// vovKernels and vovOSALayers enumerate the registered SuperVoVK<K>L<L>
// variants.
var (
	vovKernels   = []int{3, 5, 7}
	vovOSALayers = []int{1, 2, 3, 4, 5}
)

// SuperVoVKXLX is the OSA bottleneck family:
// SuperVoVK<K>L<L>(in,out,stride,bottleneck,sub_layers). Each of the
// sub_layers stages runs L kernel-K convolutions over the bottleneck width,
// projects the concatenated L*bottleneck channels down to out_channels with a
// 1x1 convolution, and is wrapped in a residual or plain sequential marker.
// Normalization, activation and squeeze-excite tokens follow the registry's
// expansion flags.
type SuperVoVKXLX struct {
	baseBlock
	bottleneckChannels int
	subLayers          int
	kernelSize         int
	osaLayers          int // kernel convolutions per stage
	cfg                vovConfig
	inner              []Block
}

func (s *SuperVoVKXLX) TypeName() string {
	return fmt.Sprintf("SuperVoVK%dL%d", s.kernelSize, s.osaLayers)
}

func (s *SuperVoVKXLX) KernelSize() int         { return s.kernelSize }
func (s *SuperVoVKXLX) OSALayers() int          { return s.osaLayers }
func (s *SuperVoVKXLX) SubLayers() int          { return s.subLayers }
func (s *SuperVoVKXLX) BottleneckChannels() int { return s.bottleneckChannels }
func (s *SuperVoVKXLX) UseResidualLink() bool   { return s.cfg.useResidual }
func (s *SuperVoVKXLX) UseBatchNorm() bool      { return s.cfg.useBN }
func (s *SuperVoVKXLX) UseActivation() bool     { return s.cfg.useRELU }
func (s *SuperVoVKXLX) UseSqueezeExcite() bool  { return s.cfg.useSE }

// Expand returns the leaf expansion synthesized at construction.
func (s *SuperVoVKXLX) Expand() []Block { return s.inner }

func (s *SuperVoVKXLX) String() string {
	return fmt.Sprintf("%s(%s%d,%d,%d,%d,%d)",
		s.TypeName(), s.namePrefix(), s.inChannels, s.outChannels, s.stride,
		s.bottleneckChannels, s.subLayers)
}

// superVoVInnerCode synthesizes the stage-by-stage code an OSA block expands
// to. The declared stride lands on the very first kernel convolution; every
// later convolution runs at stride 1.
func superVoVInnerCode(in, out, stride, bottleneck, subLayers, kernel, osaLayers int, cfg vovConfig) string {
	var sb strings.Builder
	last := in
	current := stride
	for i := 0; i < subLayers; i++ {
		var stage strings.Builder
		stageLast := last
		for l := 0; l < osaLayers; l++ {
			fmt.Fprintf(&stage, "ConvKX(%d,%d,%d,%d)", stageLast, bottleneck, kernel, current)
			if cfg.useBN {
				fmt.Fprintf(&stage, "BN(%d)", bottleneck)
			}
			if cfg.useRELU {
				fmt.Fprintf(&stage, "RELU(%d)", bottleneck)
			}
			stageLast = bottleneck
			current = 1
		}

		// Project the concatenated bottleneck width back down.
		fmt.Fprintf(&stage, "ConvKX(%d,%d,1,1)", osaLayers*bottleneck, out)
		if cfg.useBN {
			fmt.Fprintf(&stage, "BN(%d)", out)
		}
		if cfg.useRELU {
			fmt.Fprintf(&stage, "RELU(%d)", out)
		}
		if cfg.useSE {
			fmt.Fprintf(&stage, "SE(%d)", out)
		}

		if cfg.useResidual {
			fmt.Fprintf(&sb, "OSAResBlock(%s)", stage.String())
		} else {
			fmt.Fprintf(&sb, "OSABlock(%s)", stage.String())
		}
		last = out
	}
	return sb.String()
}

func decodeSuperVoV(kernel, osaLayers int, cfg vovConfig) decodeFunc {
	typeName := fmt.Sprintf("SuperVoVK%dL%d", kernel, osaLayers)
	return func(code string, ctx *decodeContext) (Block, string, error) {
		base, body, rest, err := paramBody(typeName, code, ctx)
		if err != nil {
			return nil, "", err
		}
		f, err := intFields(typeName, body, 5)
		if err != nil {
			return nil, "", err
		}
		base.inChannels, base.outChannels, base.stride = f[0], f[1], f[2]
		bottleneck, subLayers := f[3], f[4]
		if bottleneck < 1 {
			return nil, "", &InvalidParameterError{TypeName: typeName, Field: fmt.Sprint(bottleneck), Message: "bottleneck_channels must be positive"}
		}
		if subLayers < 1 {
			return nil, "", &InvalidParameterError{TypeName: typeName, Field: fmt.Sprint(subLayers), Message: "sub_layers must be positive"}
		}

		innerCode := superVoVInnerCode(base.inChannels, base.outChannels, base.stride,
			bottleneck, subLayers, kernel, osaLayers, cfg)
		inner, err := parseSequence(innerCode, ctx)
		if err != nil {
			return nil, "", err
		}
		return &SuperVoVKXLX{
			baseBlock:          base,
			bottleneckChannels: bottleneck,
			subLayers:          subLayers,
			kernelSize:         kernel,
			osaLayers:          osaLayers,
			cfg:                cfg,
			inner:              inner,
		}, rest, nil
	}
}

// Split subdivides the block into two sequential codes once subLayers reaches
// threshold. Both children share the output and bottleneck widths; the
// second child starts from the first child's output at stride 1. Below the
// threshold the canonical string is returned unchanged.
func (s *SuperVoVKXLX) Split(threshold int) string {
	if s.subLayers < threshold {
		return s.String()
	}
	first := threshold / 2
	second := s.subLayers - first
	return fmt.Sprintf("%s(%d,%d,%d,%d,%d)%s(%d,%d,%d,%d,%d)",
		s.TypeName(), s.inChannels, s.outChannels, s.stride, s.bottleneckChannels, first,
		s.TypeName(), s.outChannels, s.outChannels, 1, s.bottleneckChannels, second)
}

// StructureScale rewrites the block with its output and bottleneck widths
// scaled by channelScale and its depth scaled by subLayerScale, returning the
// new code. The receiver is not modified.
func (s *SuperVoVKXLX) StructureScale(channelScale, subLayerScale float64) string {
	newOut := SmartRound(float64(s.outChannels) * channelScale)
	newBottleneck := SmartRound(float64(s.bottleneckChannels) * channelScale)
	newSub := scaleSubLayers(s.subLayers, subLayerScale)
	return fmt.Sprintf("%s(%d,%d,%d,%d,%d)",
		s.TypeName(), s.inChannels, newOut, s.stride, newBottleneck, newSub)
}

func (r *Registry) registerVoVBlocks(cfg vovConfig) {
	for _, k := range vovKernels {
		for _, l := range vovOSALayers {
			r.register(fmt.Sprintf("SuperVoVK%dL%d", k, l), decodeSuperVoV(k, l, cfg))
		}
	}
}
