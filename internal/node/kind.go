package node

// Kind is the closed set of node behaviours. Type names that match none of
// the known kinds load as KindUnknown, which never changes its outputs.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValue
	KindDeviceTrigger
	KindAdd
	KindTimer
	KindCounter
)

var kindNames = map[string]Kind{
	"Value":         KindValue,
	"DeviceTrigger": KindDeviceTrigger,
	"Add":           KindAdd,
	"Timer":         KindTimer,
	"Counter":       KindCounter,
}

// ParseKind maps a document type name onto a Kind.
func ParseKind(name string) Kind {
	return kindNames[name]
}

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindDeviceTrigger:
		return "DeviceTrigger"
	case KindAdd:
		return "Add"
	case KindTimer:
		return "Timer"
	case KindCounter:
		return "Counter"
	}
	return "Unknown"
}

// Stateful reports whether nodes of this kind own an entry in State.
func (k Kind) Stateful() bool {
	return k == KindTimer || k == KindCounter
}
