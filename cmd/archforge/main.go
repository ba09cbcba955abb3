// archforge inspects and transforms textual network architecture codes: it
// decodes codes into block tables, canonicalizes and expands them, applies
// split/scale transforms, and enumerates search-space candidates.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("ARCHFORGE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
