package protocol

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateOrMalformed = errors.New("duplicate or malformed command signature")
	ErrDictionarySealed     = errors.New("command dictionary is sealed")
	ErrNoMatch              = errors.New("frame matches no command")
	ErrArgumentRange        = errors.New("command argument out of range")
)

// Signature placeholders. A signature is literal ASCII mixed with typed
// argument slots, e.g. "PWMR%SL%S" or "ENC_ABS%u".
const (
	PlaceholderSigned   = 'S'
	PlaceholderUnsigned = 'u'
)

// maxArgs bounds the argument slots of one signature
const maxArgs = 4

// ArgKind is the type of a parsed argument slot
type ArgKind uint8

const (
	ArgSigned ArgKind = iota
	ArgUnsigned
)

// Arg is one parsed argument
type Arg struct {
	Kind     ArgKind
	Signed   int32
	Unsigned uint32
}

// Builder turns the parsed arguments of a matched signature into a Command
type Builder func(args []Arg) (Command, error)

type tokenKind uint8

const (
	tokLiteral tokenKind = iota
	tokSigned
	tokUnsigned
)

type token struct {
	kind    tokenKind
	literal byte
}

type entry struct {
	signature string
	tokens    []token
	build     Builder
}

// Dictionary holds the registered command signatures. It is filled once at
// startup, sealed, and then only read.
type Dictionary struct {
	entries []entry
	sealed  bool
}

// NewDictionary creates an empty dictionary
func NewDictionary() *Dictionary {
	return &Dictionary{}
}

// Register adds a signature and the builder invoked when a frame matches it
func (d *Dictionary) Register(signature string, build Builder) error {
	if d.sealed {
		return ErrDictionarySealed
	}
	if build == nil {
		return ErrDuplicateOrMalformed
	}
	for i := range d.entries {
		if d.entries[i].signature == signature {
			return ErrDuplicateOrMalformed
		}
	}
	tokens, ok := compileSignature(signature)
	if !ok {
		return ErrDuplicateOrMalformed
	}
	d.entries = append(d.entries, entry{
		signature: signature,
		tokens:    tokens,
		build:     build,
	})
	return nil
}

// Seal forbids further registration
func (d *Dictionary) Seal() {
	d.sealed = true
}

// Count returns the number of registered signatures
func (d *Dictionary) Count() int {
	return len(d.entries)
}

// Signatures lists the registered signatures in registration order
func (d *Dictionary) Signatures() []string {
	out := make([]string, len(d.entries))
	for i := range d.entries {
		out[i] = d.entries[i].signature
	}
	return out
}

// String renders the dictionary one signature per line
func (d *Dictionary) String() string {
	return strings.Join(d.Signatures(), "\n")
}

// Match finds the signature that covers the whole frame and builds its command
func (d *Dictionary) Match(frame []byte) (Command, error) {
	var args [maxArgs]Arg
	for i := range d.entries {
		n, ok := matchTokens(d.entries[i].tokens, frame, &args)
		if !ok {
			continue
		}
		cmd, err := d.entries[i].build(args[:n])
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
	return nil, ErrNoMatch
}

// compileSignature splits a signature into tokens and rejects ambiguous forms
func compileSignature(sig string) ([]token, bool) {
	if len(sig) == 0 || len(sig) > FrameMax {
		return nil, false
	}
	tokens := make([]token, 0, len(sig))
	slots := 0
	for i := 0; i < len(sig); i++ {
		c := sig[i]
		if c != '%' {
			if c <= ' ' || c > '~' {
				return nil, false
			}
			// A literal digit or sign right after a slot could never be told apart
			if len(tokens) > 0 && tokens[len(tokens)-1].kind != tokLiteral &&
				(isDigit(c) || c == '+' || c == '-') {
				return nil, false
			}
			tokens = append(tokens, token{kind: tokLiteral, literal: c})
			continue
		}
		i++
		if i >= len(sig) {
			return nil, false
		}
		// Two adjacent slots have no delimiter between them
		if len(tokens) > 0 && tokens[len(tokens)-1].kind != tokLiteral {
			return nil, false
		}
		switch sig[i] {
		case PlaceholderSigned:
			tokens = append(tokens, token{kind: tokSigned})
		case PlaceholderUnsigned:
			tokens = append(tokens, token{kind: tokUnsigned})
		default:
			return nil, false
		}
		slots++
		if slots > maxArgs {
			return nil, false
		}
	}
	return tokens, true
}

// matchTokens matches the complete frame and fills args
func matchTokens(tokens []token, frame []byte, args *[maxArgs]Arg) (int, bool) {
	pos := 0
	n := 0
	for _, tok := range tokens {
		switch tok.kind {
		case tokLiteral:
			if pos >= len(frame) || frame[pos] != tok.literal {
				return 0, false
			}
			pos++
		case tokSigned:
			v, next, ok := parseSigned(frame, pos)
			if !ok {
				return 0, false
			}
			args[n] = Arg{Kind: ArgSigned, Signed: v}
			n++
			pos = next
		case tokUnsigned:
			v, next, ok := parseUnsigned(frame, pos)
			if !ok {
				return 0, false
			}
			args[n] = Arg{Kind: ArgUnsigned, Unsigned: v}
			n++
			pos = next
		}
	}
	return n, pos == len(frame)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
