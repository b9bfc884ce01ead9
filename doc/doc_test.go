package doc

import (
	"bytes"
	"crypto/sha256"
	"math/big"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"

	"xdao.co/udigest/compliance"
	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

const sampleJSON = `{"name": "Alice", "skills": ["math", "crypto"], "age": 36, "admin": true, "manager": null}`

const sampleYAML = `
skills:
  - math
  - crypto
manager: ~
age: 36
admin: true
name: Alice
`

func mustJSON(t *testing.T, s string, mode compliance.ComplianceMode) Value {
	t.Helper()
	v, err := FromJSON(strings.NewReader(s), mode)
	if err != nil {
		t.Fatalf("FromJSON(%s): %v", s, err)
	}
	return v
}

func digest(v Value) []byte { return udigest.Hash(sha256.New, v) }

func TestFormatsAgree(t *testing.T) {
	fromJSON := mustJSON(t, sampleJSON, compliance.Strict)

	fromYAML, err := FromYAML([]byte(sampleYAML), compliance.Strict)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}

	raw, err := cbor.Marshal(map[string]any{
		"age":     36,
		"admin":   true,
		"manager": nil,
		"name":    "Alice",
		"skills":  []string{"math", "crypto"},
	})
	if err != nil {
		t.Fatalf("cbor.Marshal: %v", err)
	}
	fromCBOR, err := FromCBOR(raw, compliance.Strict)
	if err != nil {
		t.Fatalf("FromCBOR: %v", err)
	}

	want := digest(fromJSON)
	if got := digest(fromYAML); !bytes.Equal(got, want) {
		t.Fatalf("YAML digest differs from JSON")
	}
	if got := digest(fromCBOR); !bytes.Equal(got, want) {
		t.Fatalf("CBOR digest differs from JSON")
	}
}

func TestMemberOrderIrrelevant(t *testing.T) {
	a := mustJSON(t, `{"a": 1, "b": {"x": [1, 2], "y": "z"}}`, compliance.Strict)
	b := mustJSON(t, `{"b": {"y": "z", "x": [1, 2]}, "a": 1}`, compliance.Strict)
	if !Equal(a, b) {
		t.Fatalf("member order changed the encoding")
	}
	c := mustJSON(t, `{"b": {"y": "z", "x": [2, 1]}, "a": 1}`, compliance.Strict)
	if Equal(a, c) {
		t.Fatalf("array order must change the encoding")
	}
	if v, ok := a.Lookup("a"); !ok || v.Int().Int64() != 1 {
		t.Fatalf("Lookup(a) = %v, %v", v, ok)
	}
}

func TestKindsAreDistinct(t *testing.T) {
	values := []Value{
		NullValue(),
		BoolValue(false),
		Int64Value(0),
		StringValue(""),
		BytesValue(nil),
		ArrayValue(),
		ObjectValue(),
		Int64Value(1),
		StringValue("1"),
		BytesValue([]byte("1")),
		ArrayValue(Int64Value(1)),
	}
	seen := map[string]int{}
	for i, v := range values {
		s := string(udigest.Encode(v))
		if j, ok := seen[s]; ok {
			t.Fatalf("values %d and %d collide", j, i)
		}
		seen[s] = i
	}
}

func TestNodeShape(t *testing.T) {
	got := udigest.Encode(mustJSON(t, `{"k": "v"}`, compliance.Strict))
	str := func(s string) udigest.Digestable {
		return udigest.Func(func(v *wire.Value) {
			st := v.Enum().Variant("String")
			st.Field("0").Text(s)
			st.Finish()
		})
	}
	want := udigest.Encode(udigest.Func(func(v *wire.Value) {
		st := v.Enum().Variant("Object")
		udigest.Tuple(udigest.Tuple(str("k"), str("v"))).UnambiguouslyEncode(st.Field("0"))
		st.Finish()
	}))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("object shape (-want +got):\n%s", diff)
	}
}

func TestBigIntegers(t *testing.T) {
	v := mustJSON(t, `123456789012345678901234567890`, compliance.Strict)
	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	if v.Kind() != Int || v.Int().Cmp(want) != 0 {
		t.Fatalf("got %v", v.Int())
	}

	raw, err := cbor.Marshal(want)
	if err != nil {
		t.Fatalf("cbor.Marshal: %v", err)
	}
	fromCBOR, err := FromCBOR(raw, compliance.Strict)
	if err != nil {
		t.Fatalf("FromCBOR: %v", err)
	}
	if !Equal(v, fromCBOR) {
		t.Fatalf("CBOR bignum differs from JSON integer")
	}

	if !Equal(mustJSON(t, `-0`, compliance.Strict), Int64Value(0)) {
		t.Fatalf("-0 must equal 0")
	}
}

func TestStrictAndPermissive(t *testing.T) {
	cases := []struct {
		name   string
		parse  func(mode compliance.ComplianceMode) (Value, error)
		strict Kind
	}{
		{"json float", func(m compliance.ComplianceMode) (Value, error) {
			return FromJSON(strings.NewReader(`[1.5]`), m)
		}, KindCanonical},
		{"json duplicate", func(m compliance.ComplianceMode) (Value, error) {
			return FromJSON(strings.NewReader(`{"a": 1, "a": 2}`), m)
		}, KindCanonical},
		{"yaml float", func(m compliance.ComplianceMode) (Value, error) {
			return FromYAML([]byte("x: 2.5e3\n"), m)
		}, KindCanonical},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := c.parse(compliance.Strict); !IsKind(err, c.strict) {
				t.Fatalf("strict: got %v want %s", err, c.strict)
			}
			if _, err := c.parse(compliance.Permissive); err != nil {
				t.Fatalf("permissive: %v", err)
			}
		})
	}

	last := mustJSON(t, `{"a": 1, "a": 2}`, compliance.Permissive)
	if !Equal(last, mustJSON(t, `{"a": 2}`, compliance.Strict)) {
		t.Fatalf("permissive duplicate keys must keep the last value")
	}

	f := mustJSON(t, `[2.5e3, -0.0, 0.1]`, compliance.Permissive)
	var texts []string
	for _, item := range f.Items() {
		texts = append(texts, CanonicalFloat(item.Float()))
	}
	if diff := cmp.Diff([]string{"2500", "0", "0.1"}, texts); diff != "" {
		t.Fatalf("canonical floats (-want +got):\n%s", diff)
	}
	if !Equal(f, mustJSON(t, `[2500.0, 0e0, 1e-1]`, compliance.Permissive)) {
		t.Fatalf("equal floats must encode identically")
	}
}

func TestRejections(t *testing.T) {
	cases := map[string]func() error{
		"yaml nan": func() error {
			_, err := FromYAML([]byte("x: .nan\n"), compliance.Permissive)
			return err
		},
		"yaml duplicate": func() error {
			_, err := FromYAML([]byte("{a: 1, a: 1}\n"), compliance.Permissive)
			return err
		},
		"yaml merge": func() error {
			_, err := FromYAML([]byte("base: &b {x: 1}\nderived:\n  <<: *b\n"), compliance.Permissive)
			return err
		},
		"json trailing": func() error {
			_, err := FromJSON(strings.NewReader(`{} {}`), compliance.Strict)
			return err
		},
		"json truncated": func() error {
			_, err := FromJSON(strings.NewReader(`{"a": [1, 2`), compliance.Strict)
			return err
		},
		"json invalid utf8": func() error {
			_, err := FromJSON(strings.NewReader("\"a\xffb\""), compliance.Strict)
			if RuleID(err) != "DOC-CANON-004" {
				return nil
			}
			return err
		},
		"cbor duplicate": func() error {
			// {"a": 1, "a": 2}
			_, err := FromCBOR([]byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}, compliance.Permissive)
			return err
		},
		"cbor tag": func() error {
			raw, _ := cbor.Marshal(cbor.Tag{Number: 1000, Content: "x"})
			_, err := FromCBOR(raw, compliance.Permissive)
			return err
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			if err := fn(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestYAMLScalars(t *testing.T) {
	v, err := FromYAML([]byte("hex: 0x1F\nbin: !!binary aGVsbG8=\nwhen: 2024-01-02\nyes: true\n"), compliance.Strict)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if x, _ := v.Lookup("hex"); x.Kind() != Int || x.Int().Int64() != 31 {
		t.Fatalf("hex: %v", x.Int())
	}
	if x, _ := v.Lookup("bin"); x.Kind() != Bytes || x.Str() != "hello" {
		t.Fatalf("bin: %q", x.Str())
	}
	if x, _ := v.Lookup("when"); x.Kind() != String || x.Str() != "2024-01-02" {
		t.Fatalf("when: %v %q", x.Kind(), x.Str())
	}
}

func TestParseFormat(t *testing.T) {
	if FormatFromPath("a/b.yml") != YAML || FormatFromPath("x.cbor") != CBOR || FormatFromPath("noext") != JSON {
		t.Fatalf("FormatFromPath")
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Fatalf("expected error")
	}
	v, err := Parse(JSON, []byte(sampleJSON), compliance.Strict)
	if err != nil || !Equal(v, mustJSON(t, sampleJSON, compliance.Strict)) {
		t.Fatalf("Parse: %v", err)
	}
}

func TestJSONInvalidUTF8(t *testing.T) {
	for _, in := range []string{"\"a\xffb\"", "\"a\xfeb\"", "{\"k\xff\": 1}"} {
		if _, err := FromJSON(strings.NewReader(in), compliance.Strict); !IsKind(err, KindCanonical) {
			t.Fatalf("FromJSON(%q) strict: got %v, want a canonical error", in, err)
		}
	}

	// An escaped replacement character is valid input.
	v, err := FromJSON(strings.NewReader(`"a\ufffdb"`), compliance.Strict)
	if err != nil {
		t.Fatalf("escaped U+FFFD: %v", err)
	}
	if v.Str() != "a\ufffdb" {
		t.Fatalf("got %q", v.Str())
	}

	// Permissive mode folds invalid bytes into U+FFFD.
	p, err := FromJSON(strings.NewReader("\"a\xffb\""), compliance.Permissive)
	if err != nil {
		t.Fatalf("permissive: %v", err)
	}
	if !Equal(p, v) {
		t.Fatalf("permissive decode %q, want %q", p.Str(), v.Str())
	}
}
