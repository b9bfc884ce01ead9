package udigest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"xdao.co/udigest/wire"
)

type person struct {
	Name     string   `udigest:"name"`
	Skills   []string `udigest:"skills"`
	JobTitle string   `udigest:"job_title"`
}

type withSkip struct {
	A      string
	Secret string `udigest:"-"`
	B      uint8
	hidden int
}

type withoutSkip struct {
	A string
	B uint8
}

type renamedA struct {
	A string `udigest:"alpha"`
	B uint8
}

type swapped struct {
	B uint8
	A string
}

type shape interface{ area() int }

type circle struct {
	R uint32 `udigest:"r"`
}

func (circle) DigestVariant() string { return "Circle" }
func (c circle) area() int            { return int(3 * c.R * c.R) }

type empty struct{}

func (empty) DigestVariant() string { return "Empty" }
func (empty) area() int             { return 0 }

type square struct {
	Side uint32 `udigest:"side"`
}

func (*square) DigestVariant() string { return "Square" }
func (s *square) area() int           { return int(s.Side * s.Side) }

type diamond struct {
	Side uint32 `udigest:"side"`
}

func (*diamond) DigestVariant() string { return "Diamond" }
func (d *diamond) area() int           { return int(d.Side * d.Side) }

type drawing struct {
	Shapes []shape `udigest:"shapes"`
}

type treeNode struct {
	Label    string      `udigest:"label"`
	Children []*treeNode `udigest:"children"`
}

type custom struct{ n int }

func (c *custom) UnambiguouslyEncode(v *wire.Value) { EncodeUint(v, uint64(c.n)) }

type options struct {
	Digest   [4]byte           `udigest:"digest"`
	Note     string            `udigest:"note,bytes"`
	Initial  rune              `udigest:"initial,char"`
	Parent   *string           `udigest:"parent,optional"`
	Labels   map[string]uint   `udigest:"labels,sorted"`
	Members  map[int]struct{}  `udigest:"members,sortedset"`
	Amount   *big.Int          `udigest:"amount"`
	Payload  []byte            `udigest:"payload"`
	Wrapped  custom            `udigest:"wrapped"`
	Children map[string]string `udigest:"-"`
}

func init() {
	MustRegisterWith("test.hex", func(v *wire.Value, x any) error {
		b, ok := x.([]byte)
		if !ok {
			return errors.New("want []byte")
		}
		v.Text(hex.EncodeToString(b))
		return nil
	})
	MustRegisterWith("test.fail", func(*wire.Value, any) error {
		return errors.New("refused")
	})
}

type routed struct {
	ID   []byte `udigest:"id,with=test.hex"`
	Note string `udigest:"note"`
}

func mustEncode(t *testing.T, x any) []byte {
	t.Helper()
	b, err := EncodeValue(x)
	if err != nil {
		t.Fatalf("EncodeValue(%T): %v", x, err)
	}
	return b
}

func TestReflectSkipIsNeutral(t *testing.T) {
	a := mustEncode(t, withSkip{A: "x", Secret: "s1", B: 7, hidden: 1})
	b := mustEncode(t, withSkip{A: "x", Secret: "s2", B: 7, hidden: 2})
	c := mustEncode(t, withoutSkip{A: "x", B: 7})
	if !bytes.Equal(a, b) || !bytes.Equal(a, c) {
		t.Fatalf("skipped and unexported fields must contribute nothing")
	}
}

func TestReflectRenameOnlyChangesName(t *testing.T) {
	plain := mustEncode(t, withoutSkip{A: "x", B: 7})
	renamed := mustEncode(t, renamedA{A: "x", B: 7})
	// "A" -> "alpha": the name leaf grows by four bytes and nothing else moves.
	if len(renamed) != len(plain)+4 {
		t.Fatalf("rename changed more than the name: %x vs %x", renamed, plain)
	}
	if !bytes.Equal(plain[7:], renamed[11:]) {
		t.Fatalf("rename must only change the field name leaf")
	}
	want := Encode(Inline().Field("alpha", String("x")).Field("B", Uint(7)))
	if !bytes.Equal(renamed, want) {
		t.Fatalf("renamed struct: got %x want %x", renamed, want)
	}
}

func TestReflectFieldOrderMatters(t *testing.T) {
	if bytes.Equal(mustEncode(t, withoutSkip{A: "x", B: 7}), mustEncode(t, swapped{A: "x", B: 7})) {
		t.Fatalf("field order must change the stream")
	}
}

func TestReflectVariants(t *testing.T) {
	got := mustEncode(t, drawing{Shapes: []shape{circle{R: 2}, empty{}}})
	want := Encode(Inline().Field("shapes", Tuple(
		Func(func(v *wire.Value) {
			s := v.Enum().Variant("Circle")
			EncodeUint(s.Field("r"), 2)
			s.Finish()
		}),
		Func(func(v *wire.Value) { v.Enum().Variant("Empty").Finish() }),
	)))
	if !bytes.Equal(got, want) {
		t.Fatalf("variants: got %x want %x", got, want)
	}
}

func TestReflectPointerReceiverVariants(t *testing.T) {
	sq := mustEncode(t, drawing{Shapes: []shape{&square{Side: 3}}})
	di := mustEncode(t, drawing{Shapes: []shape{&diamond{Side: 3}}})
	if bytes.Equal(sq, di) {
		t.Fatalf("variants Square and Diamond with equal fields collide: %x", sq)
	}
	want := Encode(Inline().Field("shapes", Tuple(Func(func(v *wire.Value) {
		s := v.Enum().Variant("Square")
		EncodeUint(s.Field("side"), 3)
		s.Finish()
	}))))
	if !bytes.Equal(sq, want) {
		t.Fatalf("square: got %x want %x", sq, want)
	}

	// A bare value is not addressable; the variant name must survive the copy.
	if got, want := mustEncode(t, square{Side: 3}), mustEncode(t, &square{Side: 3}); !bytes.Equal(got, want) {
		t.Fatalf("value and pointer encodings differ: %x vs %x", got, want)
	}
}

func TestReflectRecursiveType(t *testing.T) {
	tree := &treeNode{Label: "root", Children: []*treeNode{{Label: "a"}, {Label: "b"}}}
	got := mustEncode(t, tree)
	leaf := func(label string) Digestable {
		return Inline().Field("label", String(label)).Field("children", List[Digestable]{})
	}
	want := Encode(Inline().
		Field("label", String("root")).
		Field("children", List[Digestable]{leaf("a"), leaf("b")}))
	if !bytes.Equal(got, want) {
		t.Fatalf("tree: got %x want %x", got, want)
	}
}

func TestReflectOptions(t *testing.T) {
	parent := "p"
	x := options{
		Digest:   [4]byte{1, 2, 3, 4},
		Note:     "n",
		Initial:  'é',
		Parent:   &parent,
		Labels:   map[string]uint{"z": 1, "a": 2},
		Members:  map[int]struct{}{3: {}, -1: {}},
		Amount:   big.NewInt(-5),
		Payload:  nil,
		Wrapped:  custom{n: 9},
		Children: map[string]string{"ignored": "yes"},
	}
	got := mustEncode(t, x)
	want := Encode(Inline().
		Field("digest", Bytes{1, 2, 3, 4}).
		Field("note", String("n")).
		Field("initial", Char('é')).
		Field("parent", Some(String("p"))).
		Field("labels", SortedMap[string, Uint]{"z": 1, "a": 2}).
		Field("members", SortedSet[int]{3: {}, -1: {}}).
		Field("amount", BigInt{big.NewInt(-5)}).
		Field("payload", Bytes(nil)).
		Field("wrapped", Uint(9)))
	if !bytes.Equal(got, want) {
		t.Fatalf("options: got %x want %x", got, want)
	}

	x.Parent = nil
	got = mustEncode(t, x)
	if bytes.Equal(got, want) {
		t.Fatalf("nil optional must encode as None")
	}

	// Non-addressable copies still reach pointer-receiver encoders.
	if !bytes.Equal(mustEncode(t, custom{n: 9}), Encode(Uint(9))) {
		t.Fatalf("pointer receiver encoder not used")
	}
}

func TestReflectWith(t *testing.T) {
	got := mustEncode(t, routed{ID: []byte{0xab, 0x01}, Note: "n"})
	want := Encode(Inline().Field("id", String("ab01")).Field("note", String("n")))
	if !bytes.Equal(got, want) {
		t.Fatalf("with: got %x want %x", got, want)
	}

	if err := RegisterWith("test.hex", func(*wire.Value, any) error { return nil }); err == nil {
		t.Fatalf("duplicate with name must be refused")
	}
	if err := RegisterWith("", func(*wire.Value, any) error { return nil }); err == nil {
		t.Fatalf("empty with name must be refused")
	}
}

func TestReflectRefusesUnsupported(t *testing.T) {
	cases := map[string]struct {
		x    any
		kind Kind
	}{
		"map":        {map[string]int{"a": 1}, KindUnsupported},
		"float":      {struct{ F float64 }{1.5}, KindUnsupported},
		"chan":       {make(chan int), KindUnsupported},
		"nil":        {nil, KindEncode},
		"nil ptr":    {struct{ P *int }{}, KindEncode},
		"nil iface":  {drawing{Shapes: []shape{nil}}, KindEncode},
		"bad option": {struct{ N int `udigest:",sorted"` }{}, KindUnsupported},
		"no with":    {struct{ N int `udigest:",with=test.missing"` }{}, KindConfig},
		"with error": {struct{ N int `udigest:",with=test.fail"` }{}, KindEncode},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := EncodeValue(c.x)
			if !IsKind(err, c.kind) {
				t.Fatalf("got %v want kind %s", err, c.kind)
			}
			if _, err := Reflect(c.x); err == nil {
				t.Fatalf("Reflect must report the same error")
			}
		})
	}
}

func TestReflectAndHashValue(t *testing.T) {
	p := person{Name: "Alice", Skills: []string{"math"}, JobTitle: "cryptographer"}
	d, err := Reflect(p)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	sum, err := HashValue(sha256.New, p)
	if err != nil {
		t.Fatalf("HashValue: %v", err)
	}
	if !bytes.Equal(sum, Hash(sha256.New, d)) {
		t.Fatalf("HashValue and Hash(Reflect) differ")
	}
	if d2, _ := Reflect(Uint(1)); d2 != Uint(1) {
		t.Fatalf("Digestable values must pass through Reflect unchanged")
	}
}
