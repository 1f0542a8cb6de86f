package jsonstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

var ErrMalformed = errors.New("malformed json")

type Kind uint8

const (
	BeginObject Kind = iota + 1
	EndObject
	BeginArray
	EndArray
	Name
	Scalar
)

func (k Kind) String() string {
	switch k {
	case BeginObject:
		return "begin-object"
	case EndObject:
		return "end-object"
	case BeginArray:
		return "begin-array"
	case EndArray:
		return "end-array"
	case Name:
		return "name"
	case Scalar:
		return "scalar"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Token is a single event of the stream. Text holds the property name for
// Name tokens, the unescaped value for strings and the literal text for
// numbers and booleans.
type Token struct {
	Kind Kind
	Text string
	Null bool
}

// Reader turns a byte stream into a forward-only sequence of tokens,
// telling property names apart from string values.
type Reader struct {
	dec *jsontext.Decoder
	// one entry per open container, true when the container is an object
	// whose next token is a property name
	stack []frame
	// set once the top-level value is complete
	done bool
}

type frame struct {
	object     bool
	expectName bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		dec: jsontext.NewDecoder(
			r,
			jsontext.AllowDuplicateNames(true),
			jsontext.AllowInvalidUTF8(true),
		),
	}
}

// Next returns the next token, or io.EOF once the top-level value is done.
func (r *Reader) Next() (Token, error) {
	tok, err := r.dec.ReadToken()
	if err == io.EOF {
		return Token{}, io.EOF
	}
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if r.done {
		return Token{}, fmt.Errorf("%w: unexpected %s after top-level value", ErrMalformed, tok.Kind())
	}

	switch tok.Kind() {
	case '{':
		r.consumeValue()
		r.stack = append(r.stack, frame{object: true, expectName: true})
		return Token{Kind: BeginObject}, nil
	case '[':
		r.consumeValue()
		r.stack = append(r.stack, frame{})
		return Token{Kind: BeginArray}, nil
	case '}':
		r.pop()
		return Token{Kind: EndObject}, nil
	case ']':
		r.pop()
		return Token{Kind: EndArray}, nil
	}

	text := tok.String()
	if top := r.top(); top != nil && top.object && top.expectName {
		top.expectName = false
		return Token{Kind: Name, Text: text}, nil
	}
	r.consumeValue()
	if len(r.stack) == 0 {
		r.done = true
	}
	return Token{Kind: Scalar, Text: text, Null: tok.Kind() == 'n'}, nil
}

// Raw reads the next value whole. Strings are returned unescaped, any other
// value as its JSON text.
func (r *Reader) Raw() (string, error) {
	val, err := r.dec.ReadValue()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	r.consumeValue()
	if val.Kind() == '"' {
		unquoted, err := jsontext.AppendUnquote(nil, val)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return string(unquoted), nil
	}
	return string(val), nil
}

func (r *Reader) top() *frame {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

func (r *Reader) pop() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
	if len(r.stack) == 0 {
		r.done = true
	}
}

// a value inside an object is always followed by a name or the end of the object
func (r *Reader) consumeValue() {
	if top := r.top(); top != nil && top.object {
		top.expectName = true
	}
}
