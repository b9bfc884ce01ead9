// Package doc turns JSON, YAML and CBOR documents into digestable values.
//
// Every node is encoded as an enum named after its kind (Null, Bool, Int,
// Float, String, Bytes, Array, Object), so a string "1" and an integer 1
// never share a stream. Object members are ordered by the canonical
// encoding of their keys, which makes the digest independent of the member
// order in the source document.
package doc

import (
	"bytes"
	"math"
	"math/big"
	"slices"
	"strconv"

	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

// NodeKind is the kind of a document node.
type NodeKind uint8

const (
	Null NodeKind = iota
	Bool
	Int
	Float
	String
	Bytes
	Array
	Object
)

var kindNames = [...]string{
	Null:   "Null",
	Bool:   "Bool",
	Int:    "Int",
	Float:  "Float",
	String: "String",
	Bytes:  "Bytes",
	Array:  "Array",
	Object: "Object",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable document node.
type Value struct {
	kind    NodeKind
	b       bool
	i       *big.Int
	f       float64
	s       string
	items   []Value
	members []Member
}

// Member is one key/value pair of an object. Keys may be any value, as in
// CBOR and YAML.
type Member struct {
	Key   Value
	Value Value
}

func NullValue() Value { return Value{kind: Null} }

func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

func IntValue(x *big.Int) Value { return Value{kind: Int, i: new(big.Int).Set(x)} }

func Int64Value(x int64) Value { return Value{kind: Int, i: big.NewInt(x)} }

func Uint64Value(x uint64) Value { return Value{kind: Int, i: new(big.Int).SetUint64(x)} }

// FloatValue returns a float node. NaN and infinities have no canonical
// decimal form and are rejected.
func FloatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, newError(KindCanonical, "DOC-CANON-001", "doc: NaN and infinite numbers cannot be digested")
	}
	return Value{kind: Float, f: f}, nil
}

func StringValue(s string) Value { return Value{kind: String, s: s} }

func BytesValue(b []byte) Value { return Value{kind: Bytes, s: string(b)} }

func ArrayValue(items ...Value) Value { return Value{kind: Array, items: items} }

// ObjectValue returns an object node. Members are reordered by key; the
// caller is responsible for rejecting duplicate keys.
func ObjectValue(members ...Member) Value {
	sorted := slices.Clone(members)
	sortMembers(sorted)
	return Value{kind: Object, members: sorted}
}

func (v Value) Kind() NodeKind { return v.kind }

func (v Value) Bool() bool { return v.b }

// Int returns the integer of an Int node, or nil.
func (v Value) Int() *big.Int {
	if v.i == nil {
		return nil
	}
	return new(big.Int).Set(v.i)
}

func (v Value) Float() float64 { return v.f }

// Str returns the text of a String node or the bytes of a Bytes node.
func (v Value) Str() string { return v.s }

func (v Value) Items() []Value { return v.items }

// Members returns the members of an Object node in canonical order.
func (v Value) Members() []Member { return v.members }

// Lookup returns the member of an Object node whose key is the string k.
func (v Value) Lookup(k string) (Value, bool) {
	for _, m := range v.members {
		if m.Key.kind == String && m.Key.s == k {
			return m.Value, true
		}
	}
	return Value{}, false
}

// CanonicalFloat formats f as its shortest round-trip decimal, with -0
// folded into 0.
func CanonicalFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (v Value) UnambiguouslyEncode(e *wire.Value) {
	s := e.Enum().Variant(v.kind.String())
	switch v.kind {
	case Null:
	case Bool:
		udigest.Bool(v.b).UnambiguouslyEncode(s.Field("0"))
	case Int:
		udigest.EncodeBigInt(s.Field("0"), v.i)
	case Float:
		s.Field("0").Text(CanonicalFloat(v.f))
	case String:
		s.Field("0").Text(v.s)
	case Bytes:
		s.Field("0").Text(v.s)
	case Array:
		udigest.List[Value](v.items).UnambiguouslyEncode(s.Field("0"))
	case Object:
		l := s.Field("0").List()
		for _, m := range v.members {
			udigest.Pair[Value, Value]{First: m.Key, Second: m.Value}.UnambiguouslyEncode(l.Item())
		}
		l.Finish()
	}
	s.Finish()
}

// Equal reports whether a and b have the same canonical encoding.
func Equal(a, b Value) bool {
	return bytes.Equal(udigest.Encode(a), udigest.Encode(b))
}

type keyed struct {
	key []byte
	m   Member
}

func sortMembers(members []Member) {
	ks := make([]keyed, len(members))
	for i, m := range members {
		ks[i] = keyed{key: udigest.Encode(m.Key), m: m}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int { return bytes.Compare(a.key, b.key) })
	for i := range ks {
		members[i] = ks[i].m
	}
}

// duplicateKey reports the first key that appears twice in members, which
// must already be sorted.
func duplicateKey(members []Member) (Value, bool) {
	for i := 1; i < len(members); i++ {
		if Equal(members[i-1].Key, members[i].Key) {
			return members[i].Key, true
		}
	}
	return Value{}, false
}
