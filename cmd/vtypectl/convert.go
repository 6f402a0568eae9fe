package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vtypekit/typetable"
)

func init() {
	rootCmd.AddCommand(newConvertCmd())
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a type table between TOML and CBOR",
		Long: `The convert command reads a type table and writes it in the format named
by the output file's extension (.toml or .cbor). CBOR output is canonical,
so converting the same table twice produces identical bytes.

Example:
  vtypectl convert winxp_x86.toml winxp_x86.cbor
  vtypectl convert winxp_x86.cbor winxp_x86.toml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args)
		},
	}
}

func runConvert(args []string) error {
	in, out := args[0], args[1]

	printVerbose("Reading table: %s\n", in)
	t, err := typetable.Load(in)
	if err != nil {
		return err
	}
	if err := t.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	if jsonOut {
		return printJSON(map[string]any{
			"table":  t.Name,
			"input":  in,
			"output": out,
			"types":  len(t.Types),
		})
	}
	printInfo("Wrote %s (%d types) to %s\n", t.Name, len(t.Types), out)
	return nil
}
