package mutator

import "fmt"

// Alphabet is the set of symbols replacement bytes are drawn from.
type Alphabet []byte

// Preset names accepted by ParseAlphabet.
const (
	AlphabetBytes     = "bytes"
	AlphabetPrintable = "printable"
)

// AllBytes covers the full byte range 0-255, the generic seed-mutation
// alphabet.
func AllBytes() Alphabet {
	a := make(Alphabet, 256)
	for i := range a {
		a[i] = byte(i)
	}
	return a
}

// Printable covers digits, ASCII letters, punctuation and whitespace, the
// range used when payloads are rendered by a browser.
func Printable() Alphabet {
	a := make(Alphabet, 0, 100)
	for b := byte(0x20); b < 0x7f; b++ {
		a = append(a, b)
	}
	return append(a, '\t', '\n', '\r', '\v', '\f')
}

// ParseAlphabet resolves a configured preset name.
func ParseAlphabet(name string) (Alphabet, error) {
	switch name {
	case AlphabetBytes:
		return AllBytes(), nil
	case AlphabetPrintable:
		return Printable(), nil
	default:
		return nil, fmt.Errorf("unknown alphabet %q (want %q or %q)", name, AlphabetBytes, AlphabetPrintable)
	}
}
