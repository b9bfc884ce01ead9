package as

import (
	"bytes"
	"strings"
	"testing"

	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

func same(t *testing.T, got, want udigest.Digestable) {
	t.Helper()
	g, w := udigest.Encode(got), udigest.Encode(want)
	if !bytes.Equal(g, w) {
		t.Fatalf("stream mismatch\n got %x\nwant %x", g, w)
	}
}

func TestPrimitiveRules(t *testing.T) {
	same(t, Value(uint16(1000), Uint[uint16]()), udigest.Uint(1000))
	same(t, Value(int8(-3), Int[int8]()), udigest.Int(-3))
	same(t, Value("abc", String[string]()), udigest.String("abc"))
	same(t, Value([]byte{1, 2}, Bytes[[]byte]()), udigest.Bytes{1, 2})
	same(t, Value("ab", Bytes[string]()), udigest.Bytes("ab"))
	same(t, Value(udigest.Uint(5), Same[udigest.Uint]()), udigest.Uint(5))
	same(t, Value("Hello", Leaf(func(s string) []byte { return []byte(strings.ToLower(s)) })), udigest.String("hello"))
}

func TestOptionAndDeref(t *testing.T) {
	x := "v"
	same(t, Value(&x, Option(String[string]())), udigest.Some(udigest.String("v")))
	same(t, Value[*string](nil, Option(String[string]())), udigest.None[udigest.String]())
	same(t, Value(&x, Deref(String[string]())), udigest.String("v"))

	defer func() {
		if recover() == nil {
			t.Fatalf("Deref(nil) must panic")
		}
	}()
	udigest.Encode(Value[*string](nil, Deref(String[string]())))
}

func TestComposesThroughContainers(t *testing.T) {
	payload := [][]byte{[]byte("a"), []byte("bc")}
	same(t,
		Value(&payload, Option(Slice(Bytes[[]byte]()))),
		udigest.Some(udigest.List[udigest.Bytes]{[]byte("a"), []byte("bc")}),
	)

	pair := Tuple2[string, []uint32]{First: "k", Second: []uint32{1, 2}}
	same(t,
		Value(pair, Pair(String[string](), Slice(Uint[uint32]()))),
		udigest.Pair[udigest.String, udigest.List[udigest.Uint]]{First: "k", Second: udigest.List[udigest.Uint]{1, 2}},
	)

	triple := Tuple3[string, int, bool]{"a", -1, true}
	boolRule := With(func(b bool, v *wire.Value) { udigest.Bool(b).UnambiguouslyEncode(v) })
	same(t,
		Value(triple, Triple(String[string](), Int[int](), boolRule)),
		udigest.Tuple(udigest.String("a"), udigest.Int(-1), udigest.Bool(true)),
	)
}

func TestResult(t *testing.T) {
	r := Result(Uint[uint](), String[string]())
	same(t, Value(Outcome[uint, string]{Value: 7}, r), udigest.Ok[udigest.Uint, udigest.String](7))
	same(t, Value(Outcome[uint, string]{Err: "boom", Failed: true}, r), udigest.Err[udigest.Uint, udigest.String]("boom"))
}

func TestSortedCollections(t *testing.T) {
	m := map[string]uint{"b": 2, "a": 1, "c": 3}
	same(t,
		Value(m, SortedMap(String[string](), Uint[uint]())),
		udigest.SortedMap[string, udigest.Uint]{"a": 1, "b": 2, "c": 3},
	)

	set := map[int]bool{3: true, -7: true}
	same(t, Value(set, SortedSet[int, bool](Int[int]())), udigest.List[udigest.Int]{-7, 3})

	// Reverse order is still a total order, it just gives a different stream.
	desc := func(a, b string) int { return strings.Compare(b, a) }
	got := Value(m, SortedMapFunc(desc, String[string](), Uint[uint]()))
	want := udigest.Tuple(
		udigest.Pair[udigest.String, udigest.Uint]{First: "c", Second: 3},
		udigest.Pair[udigest.String, udigest.Uint]{First: "b", Second: 2},
		udigest.Pair[udigest.String, udigest.Uint]{First: "a", Second: 1},
	)
	same(t, got, want)
}

func init() {
	MustRegister("as.test.labels", SortedMap(String[string](), Uint[uint]()))
	MustRegister("as.test.parent", Option(Bytes[string]()))
}

type labelled struct {
	Labels map[string]uint `udigest:"labels,with=as.test.labels"`
	Parent *string         `udigest:"parent,with=as.test.parent"`
}

func TestRegisteredRulesInStructTags(t *testing.T) {
	parent := "p"
	got, err := udigest.EncodeValue(labelled{Labels: map[string]uint{"z": 1, "a": 2}, Parent: &parent})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	want := udigest.Encode(udigest.Inline().
		Field("labels", udigest.SortedMap[string, udigest.Uint]{"z": 1, "a": 2}).
		Field("parent", udigest.Some(udigest.Bytes("p"))))
	if !bytes.Equal(got, want) {
		t.Fatalf("stream mismatch\n got %x\nwant %x", got, want)
	}

	wrongType := struct {
		Labels map[string]int `udigest:",with=as.test.labels"`
	}{Labels: map[string]int{"a": 1}}
	if _, err := udigest.EncodeValue(wrongType); !udigest.IsKind(err, udigest.KindEncode) {
		t.Fatalf("rule applied to the wrong field type: got %v", err)
	}
	if err := Register("as.test.labels", Uint[uint]()); err == nil {
		t.Fatalf("duplicate rule name must be refused")
	}
}
