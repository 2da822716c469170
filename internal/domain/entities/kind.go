package entities

// Kind identifies one of the resolvable entity kinds.
type Kind string

// Resolvable entity kinds.
const (
	KindContact      Kind = "contact"
	KindOrganization Kind = "organization"
	KindAction       Kind = "action"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindContact, KindOrganization, KindAction:
		return true
	default:
		return false
	}
}
