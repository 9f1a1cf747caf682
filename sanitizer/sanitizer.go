// Package sanitizer provides a fluent and composable interface for sanitizing
// strings based on configurable rules using bitwise filter flags and transforms.
package sanitizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Matches runes not classified as printable by strconv.IsPrint
	FilterControl                         // Matches control characters (unicode.IsControl)
	FilterLineBreak                       // Matches '\n' and '\r'
)

// Transform flags for character transformation
const (
	TransformStrip      uint64 = 1 << iota // Removes the character
	TransformHexEncode                     // Encodes the character's UTF-8 bytes as "<XXYY>"
	TransformJSONEscape                    // Escapes the character with JSON-style backslashes (e.g., '\n', '\u0000')
	TransformSpace                         // Replaces the character with a single space
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyRaw  PolicyPreset = "raw"  // Raw is a no-op (passthrough)
	PolicyJSON PolicyPreset = "json" // Policy for sanitizing strings to be embedded in JSON
	PolicyTxt  PolicyPreset = "txt"  // Policy for text log lines: line breaks folded, other non-printables hex encoded
)

// rule represents a single sanitization rule
type rule struct {
	filter    uint64
	transform uint64
}

// policyRules contains pre-configured rules for each policy
var policyRules = map[PolicyPreset][]rule{
	PolicyRaw: {},
	PolicyTxt: {
		{filter: FilterLineBreak, transform: TransformSpace},
		{filter: FilterNonPrintable, transform: TransformHexEncode},
	},
	PolicyJSON: {{filter: FilterControl, transform: TransformJSONEscape}},
}

// filterCheckers maps individual filter flags to their check functions
var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterLineBreak:    func(r rune) bool { return r == '\n' || r == '\r' },
}

// Sanitizer provides chainable text sanitization.
// A Sanitizer reuses an internal buffer and is not safe for concurrent use.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a new Sanitizer instance
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
		buf:   make([]byte, 0, 256),
	}
}

// Rule adds a custom rule to the sanitizer (appended, earliest rule applies first)
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy applies a pre-configured policy to the sanitizer (appended)
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}

	s.buf = s.buf[:0]

	for _, r := range data {
		matched := false
		// First matching rule wins
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				applyTransform(&s.buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			s.buf = utf8.AppendRune(s.buf, r)
		}
	}

	return string(s.buf)
}

// matchesFilter checks if a rune matches any filter in the mask
func matchesFilter(r rune, filterMask uint64) bool {
	for flag, checker := range filterCheckers {
		if (filterMask&flag) != 0 && checker(r) {
			return true
		}
	}
	return false
}

// applyTransform applies the specified transform to the buffer
func applyTransform(buf *[]byte, r rune, transformMask uint64) {
	switch {
	case (transformMask & TransformStrip) != 0:
		// Do nothing (strip)

	case (transformMask & TransformSpace) != 0:
		*buf = append(*buf, ' ')

	case (transformMask & TransformHexEncode) != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		*buf = append(*buf, '<')
		*buf = append(*buf, hex.EncodeToString(runeBytes[:n])...)
		*buf = append(*buf, '>')

	case (transformMask & TransformJSONEscape) != 0:
		appendJSONEscaped(buf, r)
	}
}

// appendJSONEscaped writes r with JSON backslash escaping where needed
func appendJSONEscaped(buf *[]byte, r rune) {
	switch r {
	case '\n':
		*buf = append(*buf, '\\', 'n')
	case '\r':
		*buf = append(*buf, '\\', 'r')
	case '\t':
		*buf = append(*buf, '\\', 't')
	case '\b':
		*buf = append(*buf, '\\', 'b')
	case '\f':
		*buf = append(*buf, '\\', 'f')
	case '"':
		*buf = append(*buf, '\\', '"')
	case '\\':
		*buf = append(*buf, '\\', '\\')
	default:
		if r < 0x20 || r == 0x7f {
			*buf = append(*buf, fmt.Sprintf("\\u%04x", r)...)
		} else {
			*buf = utf8.AppendRune(*buf, r)
		}
	}
}

// Serializer implements format-specific string output
type Serializer struct {
	format    string
	sanitizer *Sanitizer
}

// NewSerializer creates a handler with format-specific behavior
func NewSerializer(format string, san *Sanitizer) *Serializer {
	if san == nil {
		san = New()
	}
	return &Serializer{
		format:    format,
		sanitizer: san,
	}
}

// WriteString writes a string with format-specific handling.
// txt and raw are written unquoted after sanitization; json is written as a quoted, escaped JSON string.
func (se *Serializer) WriteString(buf *[]byte, s string) {
	switch se.format {
	case "json":
		*buf = append(*buf, '"')
		for i := 0; i < len(s); {
			c := s[i]
			if c >= ' ' && c != '"' && c != '\\' && c < 0x7f {
				start := i
				for i < len(s) && s[i] >= ' ' && s[i] != '"' && s[i] != '\\' && s[i] < 0x7f {
					i++
				}
				*buf = append(*buf, s[start:i]...)
				continue
			}
			if c < utf8.RuneSelf {
				appendJSONEscaped(buf, rune(c))
				i++
				continue
			}
			// Multi-byte UTF-8 passes through, invalid bytes become U+FFFD
			r, size := utf8.DecodeRuneInString(s[i:])
			*buf = utf8.AppendRune(*buf, r)
			i += size
		}
		*buf = append(*buf, '"')

	default:
		*buf = append(*buf, se.sanitizer.Sanitize(s)...)
	}
}

// WriteNil writes a nil value
func (se *Serializer) WriteNil(buf *[]byte) {
	switch se.format {
	case "json":
		*buf = append(*buf, "null"...)
	default:
		*buf = append(*buf, "nil"...)
	}
}
