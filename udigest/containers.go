package udigest

import (
	"reflect"
	"slices"

	"xdao.co/udigest/wire"
)

// List is an ordered sequence. It is encoded as a list of its items.
type List[T Digestable] []T

func (l List[T]) UnambiguouslyEncode(v *wire.Value) {
	ls := v.List()
	for _, item := range l {
		item.UnambiguouslyEncode(ls.Item())
	}
	ls.Finish()
}

// Tuple groups values of different types. It is encoded like a List.
func Tuple(items ...Digestable) List[Digestable] {
	return List[Digestable](items)
}

// Pair is a 2-tuple.
type Pair[A, B Digestable] struct {
	First  A
	Second B
}

func (p Pair[A, B]) UnambiguouslyEncode(v *wire.Value) {
	ls := v.List()
	p.First.UnambiguouslyEncode(ls.Item())
	p.Second.UnambiguouslyEncode(ls.Item())
	ls.Finish()
}

// Option is a value that may be absent. It is encoded as the enum
// Some{"0": value} or None.
type Option[T Digestable] struct {
	value T
	ok    bool
}

func Some[T Digestable](x T) Option[T] { return Option[T]{value: x, ok: true} }

func None[T Digestable]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

func (o Option[T]) UnambiguouslyEncode(v *wire.Value) {
	e := v.Enum()
	if !o.ok {
		e.Variant("None").Finish()
		return
	}
	s := e.Variant("Some")
	o.value.UnambiguouslyEncode(s.Field("0"))
	s.Finish()
}

// Result is either a success value or an error value. It is encoded as the
// enum Ok{"0": value} or Err{"0": value}.
type Result[T, E Digestable] struct {
	value T
	err   E
	ok    bool
}

func Ok[T, E Digestable](x T) Result[T, E] { return Result[T, E]{value: x, ok: true} }

func Err[T, E Digestable](e E) Result[T, E] { return Result[T, E]{err: e} }

func (r Result[T, E]) UnambiguouslyEncode(v *wire.Value) {
	e := v.Enum()
	if r.ok {
		s := e.Variant("Ok")
		r.value.UnambiguouslyEncode(s.Field("0"))
		s.Finish()
		return
	}
	s := e.Variant("Err")
	r.err.UnambiguouslyEncode(s.Field("0"))
	s.Finish()
}

// Key is a map key type with a natural order and a canonical encoding.
type Key interface {
	~string |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// EncodeKey encodes a map key: strings as leaves, integers by value.
func EncodeKey[K Key](v *wire.Value, k K) {
	rv := reflect.ValueOf(k)
	switch rv.Kind() {
	case reflect.String:
		v.Text(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		EncodeInt(v, rv.Int())
	default:
		EncodeUint(v, rv.Uint())
	}
}

// SortedMap encodes a Go map as a list of (key, value) pairs in ascending
// key order. Go maps have no iteration order, so a map is only digestable
// through an explicit ordering like this one.
type SortedMap[K Key, V Digestable] map[K]V

func (m SortedMap[K, V]) UnambiguouslyEncode(v *wire.Value) {
	ls := v.List()
	for _, k := range sortedKeys(m) {
		pair := ls.List()
		EncodeKey(pair.Item(), k)
		m[k].UnambiguouslyEncode(pair.Item())
		pair.Finish()
	}
	ls.Finish()
}

// SortedSet encodes the keys of a Go map as a list in ascending order.
type SortedSet[K Key] map[K]struct{}

// SetOf builds a SortedSet from keys.
func SetOf[K Key](keys ...K) SortedSet[K] {
	s := make(SortedSet[K], len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s SortedSet[K]) UnambiguouslyEncode(v *wire.Value) {
	ls := v.List()
	for _, k := range sortedKeys(s) {
		EncodeKey(ls.Item(), k)
	}
	ls.Finish()
}

func sortedKeys[K Key, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
