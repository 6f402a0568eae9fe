package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/pkg/session"
)

func init() {
	rootCmd.AddCommand(newTypesCmd())
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types [type]",
		Short: "List the types of a table or show one layout",
		Long: `The types command lists the structures defined by the selected type
table. Given a type name it prints that structure's members in offset order,
with the word size from --bits applied to natives and pointers.

Example:
  vtypectl types --table winxp_x86
  vtypectl types --table winxp_x86 _EPROCESS --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(args)
		},
	}
}

type memberInfo struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Type   string `json:"type"`
	Size   int    `json:"size,omitempty"`
	Value  string `json:"value,omitempty"`
}

func runTypes(args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	defer ws.close()

	if ws.cfg.Tables.Default == "" {
		return fmt.Errorf("no type table selected (use --table or tables.default)")
	}
	// Layouts need a profile but no memory.
	s, err := session.ForParams(ws.cfg.Profile.Bits, ws.cfg.Tables.Default, addrspace.Funcs{},
		session.WithCatalog(ws.catalog),
		session.WithMetadata(ws.cfg.ExtraMetadata()),
		session.WithLogger(ws.log))
	if err != nil {
		return err
	}
	p := s.Profile()

	if len(args) == 0 {
		names := p.TypeNames()
		if jsonOut {
			return printJSON(map[string]any{
				"table": ws.cfg.Tables.Default,
				"types": names,
				"count": len(names),
			})
		}
		for _, name := range names {
			size, _ := p.TypeSize(name)
			printInfo("%-32s %6d\n", name, size)
		}
		printInfo("\nTotal: %d types\n", len(names))
		return nil
	}

	typeName := args[0]
	vt, ok := p.Type(typeName)
	if !ok {
		return fmt.Errorf("type %s not in table %s", typeName, ws.cfg.Tables.Default)
	}
	members := make([]memberInfo, 0, len(vt.Fields))
	for name, f := range vt.Fields {
		size, _ := p.DescSize(f.Type)
		members = append(members, memberInfo{Name: name, Offset: f.Offset, Type: f.Type.String(), Size: size})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Offset != members[j].Offset {
			return members[i].Offset < members[j].Offset
		}
		return members[i].Name < members[j].Name
	})

	if jsonOut {
		return printJSON(map[string]any{
			"type":    typeName,
			"size":    vt.Size,
			"members": members,
		})
	}
	printInfo("%s (%d bytes)\n", paint(headerStyle, typeName), vt.Size)
	for _, m := range members {
		printInfo("  +0x%03X %s %s\n", m.Offset,
			paint(nameStyle, fmt.Sprintf("%-24s", m.Name)), paint(typeStyle, m.Type))
	}
	return nil
}
