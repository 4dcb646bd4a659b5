package phase

import (
	"fmt"
	"strings"
)

// Kind is the base name of a life-cycle phase.
type Kind int

const (
	Incipient Kind = iota
	Intensification
	Mature
	Decay
	Residual
)

// Kinds lists every kind in life-cycle order.
var Kinds = []Kind{Incipient, Intensification, Mature, Decay, Residual}

var kindNames = [...]string{
	Incipient:       "incipient",
	Intensification: "intensification",
	Mature:          "mature",
	Decay:           "decay",
	Residual:        "residual",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a canonical phase name to its kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}
