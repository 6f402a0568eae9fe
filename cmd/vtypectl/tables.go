package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newTablesCmd())
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List available type tables",
		Long: `The tables command lists every type table found in the configured
table directories, with its type count and target metadata.

Example:
  vtypectl tables
  vtypectl tables --tables ./profiles --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables()
		},
	}
}

type tableInfo struct {
	Name        string `json:"name"`
	Types       int    `json:"types"`
	Enums       int    `json:"enums"`
	OS          string `json:"os,omitempty"`
	MemoryModel string `json:"memory_model,omitempty"`
}

func runTables() error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	defer ws.close()

	var infos []tableInfo
	for _, name := range ws.catalog.Names() {
		t, _ := ws.catalog.Get(name)
		info := tableInfo{Name: name, Types: len(t.Types), Enums: len(t.Enums)}
		info.OS, _ = t.Metadata.String("os")
		info.MemoryModel, _ = t.Metadata.String("memory_model")
		infos = append(infos, info)
	}

	if jsonOut {
		return printJSON(map[string]any{
			"tables": infos,
			"count":  len(infos),
		})
	}

	for _, info := range infos {
		printInfo("%-24s %4d types  %3d enums  %s %s\n",
			info.Name, info.Types, info.Enums, info.OS, info.MemoryModel)
	}
	printInfo("\nTotal: %d tables\n", len(infos))
	return nil
}
