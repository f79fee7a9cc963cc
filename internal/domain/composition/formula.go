package composition

import (
	"strings"
	"unicode/utf8"
)

// maxBareSymbolLen is the longest symbol printed without parentheses.
const maxBareSymbolLen = 2

// Parenthesize wraps symbols longer than two characters, so "MA" stays "MA"
// and "RbI" becomes "(RbI)".
func Parenthesize(symbol string) string {
	if utf8.RuneCountInString(symbol) > maxBareSymbolLen {
		return "(" + symbol + ")"
	}
	return symbol
}

// ShortFormula concatenates the symbols of the groups in the order given,
// without coefficients.  This is the perovskite "family".
func ShortFormula(groups ...IonGroup) string {
	var sb strings.Builder
	for _, g := range groups {
		for _, ion := range g.ions {
			sb.WriteString(Parenthesize(ion))
		}
	}
	return sb.String()
}

// LongFormula writes every symbol followed by its coefficient.  A coefficient
// reading "1" is left out; a missing coefficient prints as "nan".
func LongFormula(groups ...IonGroup) string {
	var sb strings.Builder
	for _, g := range groups {
		for i, ion := range g.ions {
			sb.WriteString(Parenthesize(ion))
			if c := g.coefs[i]; !c.IsUnity() {
				sb.WriteString(c.String())
			}
		}
	}
	return sb.String()
}
