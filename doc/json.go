package doc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"xdao.co/udigest/compliance"
)

// FromJSON reads exactly one JSON document from r.
//
// Integers keep their full precision. Numbers with a fraction or exponent
// are floats, which Strict mode rejects. Duplicate object keys are
// rejected in Strict mode; Permissive mode keeps the last value.
//
// Strict mode rejects input that is not valid UTF-8. Permissive mode lets
// the decoder replace each invalid byte with U+FFFD, so documents that
// differ only in invalid bytes share a digest.
func FromJSON(r io.Reader, mode compliance.ComplianceMode) (Value, error) {
	if mode == compliance.Strict {
		data, err := io.ReadAll(r)
		if err != nil {
			return Value{}, wrapError(KindParse, "DOC-PARSE-001", "doc: read JSON", err)
		}
		if !utf8.Valid(data) {
			return Value{}, newError(KindCanonical, "DOC-CANON-004", "doc: JSON document is not valid UTF-8")
		}
		r = bytes.NewReader(data)
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	p := jsonParser{dec: dec, mode: mode}
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, newError(KindParse, "DOC-PARSE-002", "doc: trailing data after JSON document")
	}
	return v, nil
}

type jsonParser struct {
	dec  *json.Decoder
	mode compliance.ComplianceMode
}

func (p *jsonParser) token() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, wrapError(KindParse, "DOC-PARSE-001", "doc: invalid JSON", err)
	}
	return tok, nil
}

func (p *jsonParser) value() (Value, error) {
	tok, err := p.token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return number(string(t), p.mode)
	case json.Delim:
		if t == '[' {
			return p.array()
		}
		return p.object()
	}
	return Value{}, newError(KindParse, "DOC-PARSE-001", "doc: unexpected JSON token")
}

func (p *jsonParser) array() (Value, error) {
	var items []Value
	for p.dec.More() {
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := p.token(); err != nil {
		return Value{}, err
	}
	return ArrayValue(items...), nil
}

func (p *jsonParser) object() (Value, error) {
	var members []Member
	seen := map[string]int{}
	for p.dec.More() {
		tok, err := p.token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, newError(KindParse, "DOC-PARSE-001", "doc: object key is not a string")
		}
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		if i, dup := seen[key]; dup {
			if p.mode == compliance.Strict {
				return Value{}, newError(KindCanonical, "DOC-CANON-003", "doc: duplicate object key "+strconv.Quote(key))
			}
			members[i].Value = v
			continue
		}
		seen[key] = len(members)
		members = append(members, Member{Key: StringValue(key), Value: v})
	}
	if _, err := p.token(); err != nil {
		return Value{}, err
	}
	return ObjectValue(members...), nil
}

// number converts a JSON number literal.
func number(s string, mode compliance.ComplianceMode) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Value{}, newError(KindParse, "DOC-PARSE-003", "doc: invalid integer "+strconv.Quote(s))
		}
		return Value{kind: Int, i: i}, nil
	}
	if mode == compliance.Strict {
		return Value{}, newError(KindCanonical, "DOC-CANON-002", "doc: floating point number "+s+" rejected in strict mode")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, wrapError(KindParse, "DOC-PARSE-003", "doc: invalid number "+strconv.Quote(s), err)
	}
	return FloatValue(f)
}
