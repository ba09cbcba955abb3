package blockcode

import (
	"fmt"
)

// ConvKX is a kernel-size-K convolution leaf block:
// ConvKX(in,out,kernel,stride).
type ConvKX struct {
	baseBlock
	kernelSize int
}

func (c *ConvKX) TypeName() string { return "ConvKX" }
func (c *ConvKX) KernelSize() int  { return c.kernelSize }

func (c *ConvKX) String() string {
	return fmt.Sprintf("ConvKX(%s%d,%d,%d,%d)",
		c.namePrefix(), c.inChannels, c.outChannels, c.kernelSize, c.stride)
}

func decodeConvKX(code string, ctx *decodeContext) (Block, string, error) {
	base, body, rest, err := paramBody("ConvKX", code, ctx)
	if err != nil {
		return nil, "", err
	}
	f, err := intFields("ConvKX", body, 4)
	if err != nil {
		return nil, "", err
	}
	base.inChannels, base.outChannels, base.stride = f[0], f[1], f[3]
	return &ConvKX{baseBlock: base, kernelSize: f[2]}, rest, nil
}

// BN, RELU and SE are width markers: a single channel field, input width
// equal to output width, stride 1. They carry no topology of their own and
// exist so a decoded sequence maps one-to-one onto compute modules.

// BN is a batch-normalization marker: BN(channels).
type BN struct{ baseBlock }

func (b *BN) TypeName() string { return "BN" }
func (b *BN) String() string   { return fmt.Sprintf("BN(%s%d)", b.namePrefix(), b.outChannels) }

// RELU is an activation marker: RELU(channels).
type RELU struct{ baseBlock }

func (r *RELU) TypeName() string { return "RELU" }
func (r *RELU) String() string   { return fmt.Sprintf("RELU(%s%d)", r.namePrefix(), r.outChannels) }

// SE is a squeeze-excite marker: SE(channels).
type SE struct{ baseBlock }

func (s *SE) TypeName() string { return "SE" }
func (s *SE) String() string   { return fmt.Sprintf("SE(%s%d)", s.namePrefix(), s.outChannels) }

// decodeWidthMarker builds the decoder shared by the single-field marker
// types.
func decodeWidthMarker(typeName string, mk func(baseBlock) Block) decodeFunc {
	return func(code string, ctx *decodeContext) (Block, string, error) {
		base, body, rest, err := paramBody(typeName, code, ctx)
		if err != nil {
			return nil, "", err
		}
		f, err := intFields(typeName, body, 1)
		if err != nil {
			return nil, "", err
		}
		base.inChannels, base.outChannels, base.stride = f[0], f[0], 1
		return mk(base), rest, nil
	}
}

// container is the shape shared by the sequential grouping blocks: a decoded
// inner sequence, with channel counts and stride derived from it.
type container struct {
	baseBlock
	inner []Block
}

func (c *container) Inner() []Block  { return c.inner }
func (c *container) Expand() []Block { return c.inner }

// OSABlock groups an inner sequence executed sequentially.
type OSABlock struct{ container }

func (b *OSABlock) TypeName() string { return "OSABlock" }
func (b *OSABlock) String() string {
	return fmt.Sprintf("OSABlock(%s%s)", b.namePrefix(), Render(b.inner))
}

// OSAResBlock is the residual variant of OSABlock: the inner sequence's
// output is summed with the block input by the materializing collaborator.
type OSAResBlock struct{ container }

func (b *OSAResBlock) TypeName() string { return "OSAResBlock" }
func (b *OSAResBlock) String() string {
	return fmt.Sprintf("OSAResBlock(%s%s)", b.namePrefix(), Render(b.inner))
}

// decodeContainer builds the decoder shared by the grouping types. The
// parameter body is itself a token sequence, parsed recursively through the
// same context so names and depth are tracked graph-wide.
func decodeContainer(typeName string, mk func(container) Block) decodeFunc {
	return func(code string, ctx *decodeContext) (Block, string, error) {
		base, body, rest, err := paramBody(typeName, code, ctx)
		if err != nil {
			return nil, "", err
		}
		inner, err := parseSequence(body, ctx)
		if err != nil {
			return nil, "", err
		}
		c := container{baseBlock: base, inner: inner}
		c.stride = 1
		if len(inner) > 0 {
			c.inChannels = inner[0].InChannels()
			c.outChannels = inner[len(inner)-1].OutChannels()
			for _, b := range inner {
				c.stride *= b.Stride()
			}
		}
		return mk(c), rest, nil
	}
}

func (r *Registry) registerBasicBlocks() {
	r.register("ConvKX", decodeConvKX)
	r.register("BN", decodeWidthMarker("BN", func(b baseBlock) Block { return &BN{baseBlock: b} }))
	r.register("RELU", decodeWidthMarker("RELU", func(b baseBlock) Block { return &RELU{baseBlock: b} }))
	r.register("SE", decodeWidthMarker("SE", func(b baseBlock) Block { return &SE{baseBlock: b} }))
	r.register("OSABlock", decodeContainer("OSABlock", func(c container) Block { return &OSABlock{container: c} }))
	r.register("OSAResBlock", decodeContainer("OSAResBlock", func(c container) Block { return &OSAResBlock{container: c} }))
}
