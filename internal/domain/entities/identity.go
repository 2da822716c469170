package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identifier prefixes, one per entity kind.
const (
	ContactIDPrefix      = "CON"
	OrganizationIDPrefix = "ORG"
	ActionIDPrefix       = "ACT"
)

const (
	identityDelimiter = "|"
	identityHexLength = 12
)

// GenerateID derives a deterministic identifier from normalized identity
// fields. Identical inputs always yield the same PREFIX-XXXXXXXXXXXX value.
func GenerateID(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, identityDelimiter)))
	digest := hex.EncodeToString(sum[:])[:identityHexLength]
	return strings.ToUpper(prefix + "-" + digest)
}

// ContactID returns the identifier for a contact with the given name and email.
func ContactID(name, email string) string {
	return GenerateID(ContactIDPrefix, NormalizeName(name), NormalizeEmail(email))
}

// OrganizationID returns the identifier for an organization name.
func OrganizationID(name string) string {
	return GenerateID(OrganizationIDPrefix, NormalizeName(name))
}

// ActionID returns the identifier for an action title.
func ActionID(title string) string {
	return GenerateID(ActionIDPrefix, Slugify(title))
}
