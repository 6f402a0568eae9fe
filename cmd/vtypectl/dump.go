package main

import (
	"fmt"
	"iter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vtypekit/obj"
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <source> <type> <address>",
		Short: "Decode a structure at an address",
		Long: `The dump command instantiates a type at an address and prints every
member with its decoded value. The source is a raw dump file (mapped at
--base) or pid:<n> for a live process.

Example:
  vtypectl dump memory.raw _EPROCESS 0x823c8830 --table winxp_x86
  vtypectl dump pid:4242 _TASK 0x7ffd0000 --bits 64 --json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
}

// structLike is satisfied by *obj.Struct and the classes that embed it.
type structLike interface {
	obj.Object
	Members() iter.Seq2[string, obj.Object]
}

func runDump(args []string) error {
	src, typeName := args[0], args[1]
	addr, err := parseAddr(args[2])
	if err != nil {
		return err
	}

	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	defer ws.close()

	s, err := ws.open(src)
	if err != nil {
		return err
	}
	defer s.Close()

	o, err := s.Object(typeName, addr)
	if err != nil {
		return fmt.Errorf("failed to decode %s at 0x%X: %w", typeName, addr, err)
	}

	st, ok := o.(structLike)
	if !ok {
		if jsonOut {
			return printJSON(map[string]any{
				"type":   typeName,
				"offset": addr,
				"valid":  o.IsValid(),
				"value":  o.String(),
			})
		}
		printInfo("%s %s\n", paint(headerStyle, obj.Describe(o)), renderValue(o))
		return nil
	}

	var (
		members []memberInfo
		values  []string
	)
	for name, m := range st.Members() {
		members = append(members, memberInfo{
			Name:   name,
			Offset: int(m.Offset() - addr),
			Type:   m.TypeName(),
			Size:   m.Size(),
			Value:  m.String(),
		})
		values = append(values, renderValue(m))
	}

	if jsonOut {
		return printJSON(map[string]any{
			"type":    typeName,
			"offset":  addr,
			"valid":   o.IsValid(),
			"members": members,
		})
	}
	printInfo("%s\n", paint(headerStyle, obj.Describe(o)))
	for i, m := range members {
		printInfo("  +0x%03X %s %s %s\n", m.Offset,
			paint(nameStyle, fmt.Sprintf("%-24s", m.Name)),
			paint(typeStyle, fmt.Sprintf("%-20s", m.Type)),
			values[i])
	}
	return nil
}

// renderValue shows a placeholder for members that could not be decoded.
func renderValue(o obj.Object) string {
	if obj.IsNone(o) {
		return paint(invalidStyle, "-")
	}
	return o.String()
}
