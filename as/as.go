// Package as encodes values through a representative rule instead of their
// own encoding: a map as a sorted map, a byte buffer as a raw leaf, a
// pointer as an optional value. Rules compose through containers, so
// Option(Slice(Bytes[[]byte]())) encodes a *[][]byte as an optional list of
// leaves.
package as

import (
	"cmp"
	"fmt"
	"slices"

	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

// Rule encodes values of type T.
type Rule[T any] interface {
	EncodeAs(x T, v *wire.Value)
}

// RuleFunc adapts a function to Rule.
type RuleFunc[T any] func(x T, v *wire.Value)

func (f RuleFunc[T]) EncodeAs(x T, v *wire.Value) { f(x, v) }

// With builds a rule from a function.
func With[T any](fn func(x T, v *wire.Value)) Rule[T] { return RuleFunc[T](fn) }

// Value binds x to rule r.
func Value[T any](x T, r Rule[T]) udigest.Digestable {
	return udigest.Func(func(v *wire.Value) { r.EncodeAs(x, v) })
}

// Register makes r usable from a struct tag as `udigest:",with=name"`. The
// tagged field must have type T exactly.
func Register[T any](name string, r Rule[T]) error {
	return udigest.RegisterWith(name, func(v *wire.Value, x any) error {
		t, ok := x.(T)
		if !ok {
			return fmt.Errorf("as: rule %q encodes %T, field is %T", name, *new(T), x)
		}
		r.EncodeAs(t, v)
		return nil
	})
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](name string, r Rule[T]) {
	if err := Register(name, r); err != nil {
		panic(err)
	}
}

// Same encodes a Digestable with its own encoding.
func Same[T udigest.Digestable]() Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { x.UnambiguouslyEncode(v) })
}

// Bytes encodes a string or byte slice as a raw leaf.
func Bytes[T ~[]byte | ~string]() Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { v.Bytes([]byte(x)) })
}

// Leaf encodes the bytes returned by fn as a raw leaf.
func Leaf[T any](fn func(x T) []byte) Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { v.Bytes(fn(x)) })
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Uint encodes an unsigned integer by value.
func Uint[T unsigned]() Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { udigest.EncodeUint(v, uint64(x)) })
}

// Int encodes a signed integer by value.
func Int[T signed]() Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { udigest.EncodeInt(v, int64(x)) })
}

// String encodes a string as a leaf of its bytes.
func String[T ~string]() Rule[T] {
	return RuleFunc[T](func(x T, v *wire.Value) { v.Text(string(x)) })
}

// Option encodes a nil pointer as None and any other pointer as Some of the
// pointee encoded by inner.
func Option[T any](inner Rule[T]) Rule[*T] {
	return RuleFunc[*T](func(x *T, v *wire.Value) {
		e := v.Enum()
		if x == nil {
			e.Variant("None").Finish()
			return
		}
		s := e.Variant("Some")
		inner.EncodeAs(*x, s.Field("0"))
		s.Finish()
	})
}

// Deref encodes the pointee with inner. A nil pointer panics.
func Deref[T any](inner Rule[T]) Rule[*T] {
	return RuleFunc[*T](func(x *T, v *wire.Value) {
		if x == nil {
			panic("as: Deref of nil pointer")
		}
		inner.EncodeAs(*x, v)
	})
}

// Slice encodes a slice as a list of items encoded by inner.
func Slice[T any](inner Rule[T]) Rule[[]T] {
	return RuleFunc[[]T](func(xs []T, v *wire.Value) {
		l := v.List()
		for _, x := range xs {
			inner.EncodeAs(x, l.Item())
		}
		l.Finish()
	})
}

// Tuple2 is a pair of values encoded by Pair.
type Tuple2[A, B any] struct {
	First  A
	Second B
}

// Pair encodes a Tuple2 as a 2 item list.
func Pair[A, B any](a Rule[A], b Rule[B]) Rule[Tuple2[A, B]] {
	return RuleFunc[Tuple2[A, B]](func(x Tuple2[A, B], v *wire.Value) {
		l := v.List()
		a.EncodeAs(x.First, l.Item())
		b.EncodeAs(x.Second, l.Item())
		l.Finish()
	})
}

// Tuple3 is a triple of values encoded by Triple.
type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Triple encodes a Tuple3 as a 3 item list.
func Triple[A, B, C any](a Rule[A], b Rule[B], c Rule[C]) Rule[Tuple3[A, B, C]] {
	return RuleFunc[Tuple3[A, B, C]](func(x Tuple3[A, B, C], v *wire.Value) {
		l := v.List()
		a.EncodeAs(x.First, l.Item())
		b.EncodeAs(x.Second, l.Item())
		c.EncodeAs(x.Third, l.Item())
		l.Finish()
	})
}

// Outcome is a success value or a failure value.
type Outcome[T, E any] struct {
	Value  T
	Err    E
	Failed bool
}

// Result encodes an Outcome as the enum Ok{"0"} or Err{"0"}.
func Result[T, E any](ok Rule[T], err Rule[E]) Rule[Outcome[T, E]] {
	return RuleFunc[Outcome[T, E]](func(x Outcome[T, E], v *wire.Value) {
		e := v.Enum()
		if x.Failed {
			s := e.Variant("Err")
			err.EncodeAs(x.Err, s.Field("0"))
			s.Finish()
			return
		}
		s := e.Variant("Ok")
		ok.EncodeAs(x.Value, s.Field("0"))
		s.Finish()
	})
}

// SortedMap encodes a map as a list of (key, value) pairs in ascending key
// order.
func SortedMap[K cmp.Ordered, V any](key Rule[K], val Rule[V]) Rule[map[K]V] {
	return SortedMapFunc(cmp.Compare[K], key, val)
}

// SortedMapFunc is SortedMap with an explicit key order. compare must be a
// total order over the keys in use, or two equal maps may encode differently.
func SortedMapFunc[K comparable, V any](compare func(a, b K) int, key Rule[K], val Rule[V]) Rule[map[K]V] {
	return RuleFunc[map[K]V](func(m map[K]V, v *wire.Value) {
		l := v.List()
		for _, k := range sortKeys(m, compare) {
			pair := l.List()
			key.EncodeAs(k, pair.Item())
			val.EncodeAs(m[k], pair.Item())
			pair.Finish()
		}
		l.Finish()
	})
}

// SortedSet encodes the keys of a map as a list in ascending order.
func SortedSet[K cmp.Ordered, V any](key Rule[K]) Rule[map[K]V] {
	return RuleFunc[map[K]V](func(m map[K]V, v *wire.Value) {
		l := v.List()
		for _, k := range sortKeys(m, cmp.Compare[K]) {
			key.EncodeAs(k, l.Item())
		}
		l.Finish()
	})
}

func sortKeys[K comparable, V any](m map[K]V, compare func(a, b K) int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compare)
	return keys
}
