package value

import (
	"bytes"
	"encoding/hex"
)

// String is Viua's raw-byte variant: indexed by byte, used for binary
// payloads (I/O buffers, hashes, packed wire data) where Text's codepoint
// indexing would be the wrong tool.
type String []byte

func (s String) Type() string  { return "string" }
func (s String) Str() string   { return string(s) }
func (s String) Repr() string  { return "0x" + hex.EncodeToString(s) }
func (s String) Boolean() bool { return len(s) > 0 }

func (s String) Copy() Value {
	cp := make(String, len(s))
	copy(cp, s)
	return cp
}

func (s String) Len() int { return len(s) }

func (s String) Equal(other Value) (bool, error) {
	o, ok := other.(String)
	if !ok {
		return false, NewTypeError("eq", other)
	}
	return bytes.Equal(s, o), nil
}

func (s String) Compare(other Value) (int, error) {
	o, ok := other.(String)
	if !ok {
		return 0, NewTypeError("cmp", other)
	}
	return bytes.Compare(s, o), nil
}

// Add implements byte-string concatenation.
func (s String) Add(other Value) (Value, error) {
	o, ok := other.(String)
	if !ok {
		return nil, NewTypeError("add", other)
	}
	out := make(String, 0, len(s)+len(o))
	out = append(out, s...)
	out = append(out, o...)
	return out, nil
}

// ToText decodes s as UTF-8 into a Text, raising TagInvalidUTF8 if the bytes
// are not well-formed.
func (s String) ToText() (Text, error) {
	if !ValidUTF8(s) {
		return "", NewException(TagInvalidUTF8, "string is not valid UTF-8", s)
	}
	return Text(s), nil
}
