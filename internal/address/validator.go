// Package address validates semicolon-separated recipient address lists.
package address

import (
	"regexp"
	"strings"
)

// addressPattern matches local-part@domain where the domain contains at
// least one dot and neither part contains whitespace.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result holds the outcome of validating one address-list field.
type Result struct {
	// Valid is true when every token in the field is a well-formed
	// address. An empty field is valid; optional fields like Cc and
	// Bcc may legitimately be blank.
	Valid bool

	// Invalid lists the malformed tokens in their original order,
	// for inline display next to the field.
	Invalid []string
}

// Validate splits text on semicolons, trims each token, drops empty
// tokens, and checks every remaining token against the address format.
// It is pure and may be called independently per field.
func Validate(text string) Result {
	invalid := invalidTokens(text)
	return Result{
		Valid:   len(invalid) == 0,
		Invalid: invalid,
	}
}

// Tokens returns the trimmed, non-empty address tokens of text in order.
func Tokens(text string) []string {
	var tokens []string
	for _, raw := range strings.Split(text, ";") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Join normalizes a list of addresses into the canonical
// semicolon-separated form.
func Join(addrs []string) string {
	return strings.Join(addrs, "; ")
}

func invalidTokens(text string) []string {
	var invalid []string
	for _, token := range Tokens(text) {
		if !addressPattern.MatchString(token) {
			invalid = append(invalid, token)
		}
	}
	return invalid
}
