// Package blockcode implements the textual architecture-code grammar: parsing
// codes into block sequences, serializing blocks back to canonical text, and
// the split/scale transforms that rewrite blocks as new codes.
//
// A code is a run of tokens with no separator, each token of the form
// TypeName(params). Parameter bodies of container and composite types nest
// further token sequences; an optional "name|" prefix inside the parentheses
// carries an explicit block name.
package blockcode

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Block is one decoded unit of an architecture code: a leaf compute block, a
// width marker, a container, or a composite block owning a synthesized inner
// sequence.
type Block interface {
	// TypeName is the grammar token name, e.g. "ConvKX" or "SuperVoVK3L2".
	TypeName() string
	// BlockName identifies the block within a graph. Decoders synthesize a
	// fresh name when the code carries no explicit "name|" prefix.
	BlockName() string
	InChannels() int
	OutChannels() int
	Stride() int
	// String renders the canonical code for this block. Explicitly authored
	// block names are preserved; synthesized names are omitted, so a code
	// written without names round-trips to the identical string.
	String() string
}

// Composite is implemented by blocks that own an inner block sequence:
// containers hold the sequence they were parsed from, super blocks hold the
// leaf expansion built once at construction.
type Composite interface {
	Block
	// Expand returns the leaf-level sequence this block materializes into.
	Expand() []Block
}

// baseBlock carries the attributes shared by every block variant.
type baseBlock struct {
	name        string
	named       bool // name was authored in the code, not synthesized
	inChannels  int
	outChannels int
	stride      int
}

func (b *baseBlock) BlockName() string { return b.name }
func (b *baseBlock) InChannels() int   { return b.inChannels }
func (b *baseBlock) OutChannels() int  { return b.outChannels }
func (b *baseBlock) Stride() int       { return b.stride }

// namePrefix renders the optional "name|" prefix of a canonical string.
func (b *baseBlock) namePrefix() string {
	if b.named {
		return b.name + "|"
	}
	return ""
}

// synthesizeName produces a fresh graph-unique block name.
func synthesizeName() string {
	return fmt.Sprintf("uuid%x", uuid.New())
}

// Render concatenates the canonical strings of a block sequence. The result
// is the plain-text artifact stored alongside trained weights and is itself a
// parseable architecture code.
func Render(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.String())
	}
	return sb.String()
}
