package value

import (
	"strings"
	"unicode/utf8"
)

// Text is Viua's Unicode-aware string variant: indexed by codepoint, stored
// internally as UTF-8. Index/length/slice operations all operate on
// codepoints, never raw bytes, matching §4.1's "Text is indexed by codepoint,
// not by byte" rule. String is the companion raw-byte variant for binary
// payloads.
type Text string

func (t Text) Type() string  { return "text" }
func (t Text) Str() string   { return string(t) }
func (t Text) Repr() string  { return "\"" + string(t) + "\"" }
func (t Text) Boolean() bool { return len(t) > 0 }
func (t Text) Copy() Value   { return t }

func (t Text) Len() int { return utf8.RuneCountInString(string(t)) }

func (t Text) Equal(other Value) (bool, error) {
	o, ok := other.(Text)
	if !ok {
		return false, NewTypeError("eq", other)
	}
	return t == o, nil
}

func (t Text) Compare(other Value) (int, error) {
	o, ok := other.(Text)
	if !ok {
		return 0, NewTypeError("cmp", other)
	}
	return strings.Compare(string(t), string(o)), nil
}

// Add implements text concatenation, the only arithmetic-shaped operation
// Text supports.
func (t Text) Add(other Value) (Value, error) {
	o, ok := other.(Text)
	if !ok {
		return nil, NewTypeError("add", other)
	}
	return t + o, nil
}

// At returns the codepoint at the given codepoint index as a one-rune Text.
func (t Text) At(index int) (Text, error) {
	if index < 0 {
		return "", NewException(TagIndexOutOfBounds, "negative text index", Integer(index))
	}
	i := 0
	for _, r := range string(t) {
		if i == index {
			return Text(r), nil
		}
		i++
	}
	return "", NewException(TagIndexOutOfBounds, "text index out of range", Integer(index))
}

// Slice returns the codepoint range [from, to) as a new Text.
func (t Text) Slice(from, to int) (Text, error) {
	if from < 0 || to < from {
		return "", NewException(TagIndexOutOfBounds, "invalid text slice range", nil)
	}
	runes := []rune(string(t))
	if to > len(runes) {
		return "", NewException(TagIndexOutOfBounds, "text slice out of range", nil)
	}
	return Text(runes[from:to]), nil
}

// ValidUTF8 reports whether the underlying bytes form a valid UTF-8 sequence.
// Constructors that build Text from raw bytes (e.g. decoding a String) must
// check this and raise TagInvalidUTF8 rather than silently accepting
// replacement characters.
func ValidUTF8(b []byte) bool { return utf8.Valid(b) }
