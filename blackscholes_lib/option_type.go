package blackscholes

import (
	"errors"
	"fmt"
	"strings"
)

// OptionType selects the call or put half of every formula.
type OptionType int

const (
	Call OptionType = iota
	Put
)

// ErrUnknownOptionType is returned when parsing anything other than a call or put.
var ErrUnknownOptionType = errors.New("unknown option type")

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType accepts "call", "put" and their one letter forms, case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return Call, fmt.Errorf("%w: %q", ErrUnknownOptionType, s)
	}
}

func (t OptionType) MarshalText() ([]byte, error) {
	switch t {
	case Call, Put:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOptionType, int(t))
	}
}

func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
