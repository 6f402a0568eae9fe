package basic

import (
	"fmt"
	"iter"

	"github.com/joshuapare/vtypekit/obj"
)

// ListEntry is a _LIST_ENTRY node: Flink and Blink pointers to other nodes
// embedded in their owning structures.
type ListEntry struct {
	*obj.Struct
}

// NewListEntry wraps the _LIST_ENTRY struct at cfg.Offset.
func NewListEntry(cfg obj.Config) (*ListEntry, error) {
	s, err := obj.NewStruct(cfg)
	if err != nil {
		return nil, err
	}
	l := &ListEntry{Struct: s}
	s.Embed(l)
	return l, nil
}

// IsValid reports whether either link is a valid pointer. A node with one
// intact direction still counts.
func (l *ListEntry) IsValid() bool {
	return l.Member("Flink").IsValid() || l.Member("Blink").IsValid()
}

// Next dereferences Flink (forward) or Blink.
func (l *ListEntry) Next(forward bool) obj.Object {
	link := "Blink"
	if forward {
		link = "Flink"
	}
	p, ok := l.Member(link).(*obj.Pointer)
	if !ok {
		return l.None("%s.%s is not a pointer", l.TypeName(), link)
	}
	return p.Dereference()
}

// ListOfType walks the list this entry heads, yielding the typeName
// structure that owns each node through its member field. A node is visited
// at most once; with headSentinel the entry itself is never yielded.
func (l *ListEntry) ListOfType(typeName, member string, forward, headSentinel bool) iter.Seq[obj.Object] {
	return func(yield func(obj.Object) bool) {
		if !l.IsValid() {
			return
		}
		off, err := l.Profile().FieldOffset(typeName, member)
		if err != nil {
			l.Logger().Debug("list traversal aborted", "type", typeName, "member", member, "err", err)
			return
		}
		seen := map[uint64]struct{}{}
		if headSentinel {
			seen[l.Offset()] = struct{}{}
		}

		nxt := l.Next(forward)
		for nodeValid(nxt) {
			if _, dup := seen[nxt.Offset()]; dup {
				return
			}
			item, err := obj.Instantiate(obj.Config{
				Desc:    obj.Type(typeName),
				Name:    typeName,
				Offset:  nxt.Offset() - uint64(int64(off)),
				VM:      l.VM(),
				Parent:  l.Parent(),
				Profile: l.Profile(),
			})
			seen[nxt.Offset()] = struct{}{}
			if err != nil {
				l.Logger().Debug("list traversal stopped",
					"type", typeName, "node", fmt.Sprintf("0x%X", nxt.Offset()), "err", err)
				return
			}
			if !yield(item) {
				return
			}
			nxt = advance(obj.Member(item, member), forward)
		}
	}
}

// All walks the list of the structure this entry is a member of.
func (l *ListEntry) All() iter.Seq[obj.Object] {
	parent := l.Parent()
	if parent == nil || obj.IsNone(parent) {
		return func(func(obj.Object) bool) {}
	}
	return l.ListOfType(parent.TypeName(), l.Name(), true, true)
}

func advance(link obj.Object, forward bool) obj.Object {
	if le, ok := link.(*ListEntry); ok {
		return le.Next(forward)
	}
	return obj.NewNone(obj.Config{Desc: obj.Type("_LIST_ENTRY"), Offset: link.Offset(), VM: link.VM(), Profile: link.Profile()},
		"%s is not a list entry", link.TypeName())
}

func nodeValid(o obj.Object) bool {
	return !obj.IsNone(o) && o.IsValid()
}
