package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modelsmith/archforge/pkgs/blockcode"
	"github.com/modelsmith/archforge/pkgs/searchspace"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "archforge",
		Short:         "Inspect and transform network architecture codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newParseCmd(),
		newRenderCmd(),
		newExpandCmd(),
		newSplitCmd(),
		newScaleCmd(),
		newSearchCmd(),
		newTypesCmd(),
	)
	return root
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the block types of the standard grammar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range blockcode.NewRegistry().TypeNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <code>",
		Short: "Decode a code and print its block table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDX\tTYPE\tIN\tOUT\tSTRIDE\tNAME")
			for i, b := range blocks {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
					i, b.TypeName(), b.InChannels(), b.OutChannels(), b.Stride(), b.BlockName())
			}
			return w.Flush()
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <code>",
		Short: "Decode a code and re-serialize it canonically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), blockcode.Render(blocks))
			return nil
		},
	}
}

func newExpandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <code>",
		Short: "Print the leaf-level expansion of composite blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}
			for _, b := range blocks {
				if composite, ok := b.(blockcode.Composite); ok {
					fmt.Fprintln(cmd.OutOrStdout(), blockcode.Render(composite.Expand()))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), b.String())
			}
			return nil
		},
	}
}

func newSplitCmd() *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "split <code>",
		Short: "Subdivide blocks whose depth reaches the threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}

			out := ""
			for _, b := range blocks {
				if splitter, ok := b.(blockcode.Splitter); ok {
					out += splitter.Split(threshold)
					continue
				}
				out += b.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 6, "sub-layer count at which a block is split in two")
	return cmd
}

func newScaleCmd() *cobra.Command {
	var scale, channelScale, subLayerScale float64

	cmd := &cobra.Command{
		Use:   "scale <code>",
		Short: "Rescale channel widths and sub-layer counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Dimension-specific factors default to the shared one.
			if channelScale == 0 {
				channelScale = scale
			}
			if subLayerScale == 0 {
				subLayerScale = scale
			}

			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}

			out := ""
			for _, b := range blocks {
				if scaler, ok := b.(blockcode.Scaler); ok {
					out += scaler.StructureScale(channelScale, subLayerScale)
					continue
				}
				out += b.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "shared scale factor")
	cmd.Flags().Float64Var(&channelScale, "channel-scale", 0, "channel width factor (defaults to --scale)")
	cmd.Flags().Float64Var(&subLayerScale, "sub-layer-scale", 0, "sub-layer count factor (defaults to --scale)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		index     int
		rulesPath string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "search <code>",
		Short: "Enumerate search-space candidates for a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := searchspace.DefaultRules()
			if rulesPath != "" {
				loaded, err := searchspace.LoadRules(rulesPath)
				if err != nil {
					return err
				}
				rules = loaded
			}

			blocks, err := blockcode.Parse(args[0], blockcode.NewRegistry())
			if err != nil {
				return err
			}

			if all {
				results, err := searchspace.GenerateAll(cmd.Context(), blocks, rules)
				if err != nil {
					return err
				}
				for i, lists := range results {
					printCandidates(cmd, fmt.Sprintf("block %d", i), lists)
				}
				return nil
			}

			if index < 0 || index >= len(blocks) {
				return fmt.Errorf("--index %d out of range for %d blocks", index, len(blocks))
			}
			lists, err := searchspace.Generate(blocks, index, rules)
			if err != nil {
				return err
			}
			slog.Debug("generated candidates", "index", index, "lists", len(lists))
			printCandidates(cmd, fmt.Sprintf("block %d", index), lists)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "block index to mutate")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML search rules file")
	cmd.Flags().BoolVar(&all, "all", false, "sweep every block index")
	return cmd
}

func printCandidates(cmd *cobra.Command, label string, lists [][]string) {
	for i, list := range lists {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s, list %d (%d candidates)\n", label, i, len(list))
		for _, code := range list {
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
	}
}
