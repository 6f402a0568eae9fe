package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vtypekit/basic"
	"github.com/joshuapare/vtypekit/obj"
)

var (
	walkBackward bool
	walkHead     bool
	walkLimit    int
	walkShow     []string
)

func init() {
	cmd := newWalkCmd()
	cmd.Flags().BoolVarP(&walkBackward, "backward", "b", false, "Follow Blink instead of Flink")
	cmd.Flags().
		BoolVar(&walkHead, "head", false, "The address is a bare _LIST_ENTRY list head, not a <type>")
	cmd.Flags().IntVarP(&walkLimit, "limit", "n", 0, "Stop after this many entries (0 = unlimited)")
	cmd.Flags().StringSliceVar(&walkShow, "show", nil, "Members to print for each entry")
	rootCmd.AddCommand(cmd)
}

func newWalkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "walk <source> <type> <address> <member>",
		Short: "Walk a doubly-linked list of structures",
		Long: `The walk command follows the _LIST_ENTRY named by <member> and prints
the <type> structure that owns each node. Each node is visited once, so
corrupt or cyclic lists terminate.

By default <address> is a <type> structure and is printed first. With
--head it is a bare list head, which is never printed.

Example:
  vtypectl walk memory.raw _EPROCESS 0x8055a158 ActiveProcessLinks --head --show UniqueProcessId,ImageFileName
  vtypectl walk pid:4242 _TASK 0x601040 Links --backward -n 10`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(args)
		},
	}
}

type walkEntry struct {
	Offset  uint64            `json:"offset"`
	Valid   bool              `json:"valid"`
	Members map[string]string `json:"members,omitempty"`
}

func runWalk(args []string) error {
	src, typeName, member := args[0], args[1], args[3]
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

	var (
		head  obj.Object
		first obj.Object
	)
	if walkHead {
		head, err = s.Object("_LIST_ENTRY", addr)
	} else {
		first, err = s.Object(typeName, addr)
		if err == nil {
			head = obj.Member(first, member)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to decode list head at 0x%X: %w", addr, err)
	}
	le, ok := head.(*basic.ListEntry)
	if !ok {
		return fmt.Errorf("%s is not a _LIST_ENTRY", obj.Describe(head))
	}

	var entries []walkEntry
	add := func(o obj.Object) bool {
		e := walkEntry{Offset: o.Offset(), Valid: o.IsValid()}
		if len(walkShow) > 0 {
			e.Members = make(map[string]string, len(walkShow))
			for _, name := range walkShow {
				e.Members[name] = obj.Member(o, name).String()
			}
		}
		entries = append(entries, e)
		return walkLimit <= 0 || len(entries) < walkLimit
	}

	more := true
	if first != nil {
		more = add(first)
	}
	if more {
		for o := range le.ListOfType(typeName, member, !walkBackward, true) {
			if !add(o) {
				break
			}
		}
	}

	if jsonOut {
		return printJSON(map[string]any{
			"type":    typeName,
			"member":  member,
			"entries": entries,
			"count":   len(entries),
		})
	}
	for _, e := range entries {
		line := paint(headerStyle, fmt.Sprintf("[%s] @ 0x%08X", typeName, e.Offset))
		for _, name := range walkShow {
			line += fmt.Sprintf("  %s=%s", paint(nameStyle, name), e.Members[name])
		}
		printInfo("%s\n", line)
	}
	printInfo("\nTotal: %d entries\n", len(entries))
	return nil
}
