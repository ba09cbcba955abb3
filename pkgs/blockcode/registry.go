package blockcode

import (
	"strconv"
	"strings"
)

// decodeFunc consumes one token from the head of code and returns the decoded
// block plus the unconsumed remainder.
type decodeFunc func(code string, ctx *decodeContext) (Block, string, error)

type decoderEntry struct {
	typeName string
	decode   decodeFunc
}

// Registry maps block type names to decoders. A Registry is built once,
// never mutated afterwards, and is safe to share across concurrent parses.
// Every parse receives its registry explicitly; there is no process-wide
// grammar.
type Registry struct {
	entries []decoderEntry
}

// RegistryOption adjusts how the standard grammar expands its composite
// blocks.
type RegistryOption func(*vovConfig)

// WithSqueezeExcite appends a squeeze-excite token to every OSA stage.
func WithSqueezeExcite() RegistryOption {
	return func(cfg *vovConfig) { cfg.useSE = true }
}

// WithoutResidualLinks wraps OSA stages in plain sequential markers instead
// of residual markers.
func WithoutResidualLinks() RegistryOption {
	return func(cfg *vovConfig) { cfg.useResidual = false }
}

// WithoutBatchNorm drops the normalization tokens from composite expansions.
func WithoutBatchNorm() RegistryOption {
	return func(cfg *vovConfig) { cfg.useBN = false }
}

// WithoutActivation drops the activation tokens from composite expansions.
func WithoutActivation() RegistryOption {
	return func(cfg *vovConfig) { cfg.useRELU = false }
}

// NewRegistry builds the standard grammar: leaf compute blocks, width
// markers, OSA containers, the SuperConvKXBNRELU family and the SuperVoVKXLX
// family.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultVoVConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{}
	r.registerBasicBlocks()
	r.registerSuperConvBlocks()
	r.registerVoVBlocks(cfg)
	return r
}

// NewEmptyRegistry returns a registry with no types, for assembling
// restricted grammars.
func NewEmptyRegistry() *Registry {
	return &Registry{}
}

// register appends a decoder. Duplicate or prefix-colliding registrations are
// not rejected here; the parser reports them as AmbiguousGrammarError the
// moment both claim the same input head.
func (r *Registry) register(typeName string, fn decodeFunc) {
	r.entries = append(r.entries, decoderEntry{typeName: typeName, decode: fn})
}

// TypeNames lists every registered type in registration order.
func (r *Registry) TypeNames() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.typeName
	}
	return names
}

// match returns every decoder whose type name, immediately followed by '(',
// prefixes code.
func (r *Registry) match(code string) []decoderEntry {
	var matched []decoderEntry
	for _, e := range r.entries {
		if strings.HasPrefix(code, e.typeName+"(") {
			matched = append(matched, e)
		}
	}
	return matched
}

// paramBody consumes "TypeName(body)" from the head of code. It extracts the
// optional explicit block name, synthesizes one otherwise, claims the name in
// the decode context, and returns the populated base, the remaining parameter
// body, and everything after the matched close.
func paramBody(typeName, code string, ctx *decodeContext) (baseBlock, string, string, error) {
	open := len(typeName)
	closeIdx, err := FindMatchingClose(code, open)
	if err != nil {
		return baseBlock{}, "", "", err
	}
	body := code[open+1 : closeIdx]
	rest := code[closeIdx+1:]

	name, named, body := cutBlockName(body)
	if !named {
		name = synthesizeName()
	}
	if err := ctx.claimName(typeName, name); err != nil {
		return baseBlock{}, "", "", err
	}
	return baseBlock{name: name, named: named}, body, rest, nil
}

// cutBlockName extracts an explicit "name|" prefix from a parameter body. The
// pipe only counts as a name separator when it appears before any comma or
// nested token.
func cutBlockName(body string) (string, bool, string) {
	pipe := strings.IndexByte(body, '|')
	if pipe < 0 {
		return "", false, body
	}
	if strings.IndexAny(body[:pipe], ",()") >= 0 {
		return "", false, body
	}
	return body[:pipe], true, body[pipe+1:]
}

// intFields splits a flat parameter body on ',' and converts every field to
// an integer, enforcing the declared arity.
func intFields(typeName, body string, arity int) ([]int, error) {
	parts := strings.Split(body, ",")
	if len(parts) != arity {
		return nil, &InvalidParameterError{
			TypeName: typeName,
			Message:  "want " + strconv.Itoa(arity) + " fields, got " + strconv.Itoa(len(parts)) + " in " + strconv.Quote(body),
		}
	}
	fields := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &InvalidParameterError{TypeName: typeName, Field: p, Message: "not an integer"}
		}
		fields[i] = v
	}
	return fields, nil
}
