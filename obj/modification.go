package obj

// Modification is a conditional patch applied to a profile during Reset.
// Modify receives the profile only for the duration of the call.
type Modification interface {
	Name() string
	Conditions() Conditions
	Modify(p *Profile) error
}

type modification struct {
	name  string
	conds Conditions
	fn    func(p *Profile) error
}

// NewModification builds a Modification from a predicate map and a function.
// A nil conds applies unconditionally.
func NewModification(name string, conds Conditions, fn func(p *Profile) error) Modification {
	return &modification{name: name, conds: conds, fn: fn}
}

func (m *modification) Name() string           { return m.name }
func (m *modification) Conditions() Conditions { return m.conds }

func (m *modification) Modify(p *Profile) error {
	if m.fn == nil {
		return nil
	}
	return m.fn(p)
}
