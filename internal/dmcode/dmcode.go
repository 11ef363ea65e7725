// Package dmcode encodes and decodes the opaque instance codes printed on
// physical stock units. Codes are pipe-delimited segments:
//
//	DMV1|P=<identity>|S=<serial>|T=<type>[|G=<guide>]
//
// P carries the component identity (master code or name), S a generated
// serial, T the typology segment and G an optional guiding-parent code.
// Historical data may store a simplified alias holding only the identity and
// type segments; Alias produces that form for fallback lookups.
package dmcode

import (
	"fmt"
	"strings"
)

const Version = "DMV1"

// Code is the decoded form of an instance code.
type Code struct {
	Identity string
	Serial   string
	Type     string
	Guide    string
}

// Format renders the full canonical code.
func (c Code) Format() string {
	parts := []string{Version, "P=" + c.Identity, "S=" + c.Serial, "T=" + c.Type}
	if c.Guide != "" {
		parts = append(parts, "G="+c.Guide)
	}
	return strings.Join(parts, "|")
}

// Alias renders the simplified legacy form (identity and type only).
func (c Code) Alias() string {
	return "P=" + c.Identity + "|T=" + c.Type
}

// Parse decodes a full or alias code. Unknown segments are ignored so newer
// writers do not break older readers. Parsing never fails on a missing
// version prefix — legacy aliases have none.
func Parse(raw string) Code {
	var c Code
	for _, seg := range strings.Split(raw, "|") {
		switch {
		case strings.HasPrefix(seg, "P="):
			c.Identity = seg[2:]
		case strings.HasPrefix(seg, "S="):
			c.Serial = seg[2:]
		case strings.HasPrefix(seg, "T="):
			c.Type = seg[2:]
		case strings.HasPrefix(seg, "G="):
			c.Guide = seg[2:]
		}
	}
	return c
}

// Identity extracts the P segment of a raw code, or "" when absent.
func Identity(raw string) string {
	return Parse(raw).Identity
}

// IsComposite reports whether the raw code carries a composite type segment.
// The same-container history heuristic only applies to these codes so plain
// parts are never mis-exploded.
func IsComposite(raw string) bool {
	t := Parse(raw).Type
	return t == "ASSEMBLY" || t == "PRODUCT"
}

// Serial maps a 1-based sequence number to the two-letter/four-digit serial
// segment (AA0000..ZZ9999). This yields 6.76 million combinations before
// wrapping, which exceeds practical inventory volumes.
func Serial(seq int) string {
	idx := seq - 1
	if idx < 0 {
		idx = 0
	}
	prefix := idx / 10000
	first := (prefix / 26) % 26
	second := prefix % 26
	return fmt.Sprintf("%c%c%04d", rune('A'+first), rune('A'+second), idx%10000)
}
