package profile

import (
	"strconv"
)

// Kind identifies which side of the Token union is populated.
type Kind int

const (
	KindInt Kind = iota
	KindString
)

func (k Kind) String() string {
	if k == KindInt {
		return "int"
	}
	return "string"
}

// Token is a single whitespace-delimited field of a profile line.
// It holds an integer when the field parses as one and the raw text otherwise.
// Token is comparable and can be used as a map key.
type Token struct {
	kind Kind
	num  int64
	text string
}

// ParseToken converts s to an int token if possible, else keeps it as a string.
func ParseToken(s string) Token {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntToken(v)
	}
	return StringToken(s)
}

func IntToken(v int64) Token {
	return Token{kind: KindInt, num: v}
}

func StringToken(s string) Token {
	return Token{kind: KindString, text: s}
}

func (t Token) Kind() Kind {
	return t.kind
}

func (t Token) IsInt() bool {
	return t.kind == KindInt
}

// Int returns the integer value and true for int tokens.
func (t Token) Int() (int64, bool) {
	if t.kind != KindInt {
		return 0, false
	}
	return t.num, true
}

// String renders the token the way it is written in output files.
func (t Token) String() string {
	if t.kind == KindInt {
		return strconv.FormatInt(t.num, 10)
	}
	return t.text
}

// MarshalText lets tokens be used as JSON/YAML map keys and values.
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
