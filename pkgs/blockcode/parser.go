package blockcode

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/modelsmith/archforge/pkgs/invariant"
)

// maxNestingDepth bounds recursive decoding of nested container bodies and
// synthesized composite expansions. Exceeding it reports the code as
// malformed instead of growing the stack without limit.
const maxNestingDepth = 32

// decodeContext threads per-parse state through recursive decoding: the
// registry in use, the nesting depth, and the block names already claimed in
// this graph. A fresh context is created per Parse call, so concurrent
// parses share nothing but the read-only registry.
type decodeContext struct {
	reg    *Registry
	depth  int
	seen   map[string]struct{}
	logger *slog.Logger
}

// claimName records a block name, rejecting explicit duplicates within one
// graph.
func (ctx *decodeContext) claimName(typeName, name string) error {
	if _, ok := ctx.seen[name]; ok {
		return &InvalidParameterError{TypeName: typeName, Field: name, Message: "duplicate block name in graph"}
	}
	ctx.seen[name] = struct{}{}
	return nil
}

// Parse decodes an architecture code into its ordered block sequence using
// the given registry. The whole code is consumed or the call fails; there is
// no partial result. An empty code yields an empty sequence.
func Parse(code string, reg *Registry) ([]Block, error) {
	invariant.NotNil(reg, "reg")
	ctx := &decodeContext{
		reg:    reg,
		seen:   make(map[string]struct{}),
		logger: parserLogger(),
	}
	return parseSequence(code, ctx)
}

// parseSequence is the recursive-descent core: match exactly one decoder at
// the head of the remaining input, let it consume a token, repeat until the
// input is exhausted. Container and composite decoders re-enter here for
// their nested bodies through the shared context.
func parseSequence(code string, ctx *decodeContext) ([]Block, error) {
	if ctx.depth >= maxNestingDepth {
		return nil, &MalformedCodeError{
			Code:    code,
			Pos:     -1,
			Message: fmt.Sprintf("nesting exceeds depth ceiling %d", maxNestingDepth),
		}
	}
	ctx.depth++
	defer func() { ctx.depth-- }()

	blocks := []Block{}
	remaining := code
	for remaining != "" {
		matched := ctx.reg.match(remaining)
		switch {
		case len(matched) == 0:
			return nil, &UnknownBlockTypeError{Remainder: remaining}
		case len(matched) > 1:
			names := make([]string, len(matched))
			for i, e := range matched {
				names[i] = e.typeName
			}
			sort.Strings(names)
			return nil, &AmbiguousGrammarError{Remainder: remaining, Matches: names}
		}

		entry := matched[0]
		block, rest, err := entry.decode(remaining, ctx)
		if err != nil {
			return nil, err
		}
		invariant.Invariant(len(rest) < len(remaining), "decoder for %s must consume input", entry.typeName)

		ctx.logger.Debug("decoded block",
			"type", block.TypeName(),
			"name", block.BlockName(),
			"remaining", len(rest))

		blocks = append(blocks, block)
		remaining = rest
	}
	return blocks, nil
}

// parserLogger builds the parse-time debug logger. Decode tracing is off
// unless ARCHFORGE_DEBUG_PARSER is set.
func parserLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("ARCHFORGE_DEBUG_PARSER") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps are noise in decode traces.
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
