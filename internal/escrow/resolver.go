package escrow

import (
	"fmt"
	"strings"
)

// DeepLinkPrefix is the scheme the listing QR encodes: kiwiapp://product/<id>.
const DeepLinkPrefix = "kiwiapp://product/"

type LookupKind string

const (
	KindID   LookupKind = "id"
	KindCode LookupKind = "code"
)

// Lookup is a classified scan or manual entry, ready for a contract fetch.
type Lookup struct {
	Kind  LookupKind `json:"kind"`
	Value string     `json:"value"`
}

// ResolveInput classifies raw scanner or text-field input into a lookup key.
// Deep links and all-digit strings resolve to a numeric contract id; anything
// else is treated as an access code and uppercased.
func ResolveInput(raw string) (Lookup, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Lookup{}, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	if rest, ok := strings.CutPrefix(trimmed, DeepLinkPrefix); ok {
		if rest == "" {
			return Lookup{}, fmt.Errorf("%w: deep link has no id", ErrInvalidInput)
		}
		return Lookup{Kind: KindID, Value: rest}, nil
	}

	if isDigits(trimmed) {
		return Lookup{Kind: KindID, Value: trimmed}, nil
	}

	return Lookup{Kind: KindCode, Value: strings.ToUpper(trimmed)}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
