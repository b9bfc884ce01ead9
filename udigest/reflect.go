package udigest

import (
	"cmp"
	"fmt"
	"hash"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"sync"

	"xdao.co/udigest/wire"
)

// Reflection maps Go types onto the canonical stream:
//
//   - bool, integers, strings and byte slices/arrays as in the primitive types
//   - other slices and arrays as lists
//   - structs as structs with exported fields in declaration order
//   - pointers and interfaces as the value they refer to
//   - big.Int as BigInt
//   - a type with a DigestVariant() string method as an enum variant whose
//     fields are the struct fields
//   - any type implementing Digestable through its own method
//
// Struct fields are configured with the `udigest` tag:
//
//	Field T `udigest:"name"`           // rename
//	Field T `udigest:"-"`              // skip
//	Field T `udigest:",bytes"`         // string or byte array as a raw leaf
//	Field *T `udigest:",optional"`     // nil as None, otherwise Some
//	Field map[K]V `udigest:",sorted"`  // (key, value) pairs in key order
//	Field map[K]V `udigest:",sortedset"` // keys in order
//	Field rune `udigest:",char"`       // code point, not signed integer
//	Field T `udigest:",with=name"`     // through the func registered as name
//	_ struct{} `udigest:"tag=app.v1"`  // domain tag of the struct
//
// Maps without sorted/sortedset, floats, complex numbers, channels and
// functions are refused.

// Variant is implemented by the variant types of a sum type. A Go sum type
// is usually an interface with one struct type per variant.
type Variant interface {
	DigestVariant() string
}

type encoderFunc func(v *wire.Value, rv reflect.Value)

var encoderCache sync.Map // map[reflect.Type]encoderFunc

var (
	digestableType = reflect.TypeFor[Digestable]()
	variantType    = reflect.TypeFor[Variant]()
	bigIntType     = reflect.TypeFor[big.Int]()
)

// reflectPanic carries an encode error out of the reflection encoders.
type reflectPanic struct{ err error }

func fail(kind Kind, ruleID, format string, args ...any) {
	panic(reflectPanic{newError(kind, ruleID, "udigest: "+fmt.Sprintf(format, args...))})
}

func recoverError(errp *error) {
	if r := recover(); r != nil {
		rp, ok := r.(reflectPanic)
		if !ok {
			panic(r)
		}
		*errp = rp.err
	}
}

// EncodeValue returns the canonical stream of x.
func EncodeValue(x any) (out []byte, err error) {
	defer recoverError(&err)
	var buf wire.Bytes
	encodeReflect(&buf, x)
	return buf.Bytes(), nil
}

// HashValue digests x with a fixed-output hash.
func HashValue(newHash func() hash.Hash, x any) (sum []byte, err error) {
	defer recoverError(&err)
	h := newHash()
	encodeReflect(wire.HashBuffer(h), x)
	return h.Sum(nil), nil
}

// Reflect returns x as a Digestable. x is checked once up front, so the
// returned value only fails to encode if x is modified afterwards.
func Reflect(x any) (Digestable, error) {
	if d, ok := x.(Digestable); ok {
		return d, nil
	}
	if err := checkReflect(x); err != nil {
		return nil, err
	}
	return reflected{x: x}, nil
}

// MustReflect is like Reflect but panics on error.
func MustReflect(x any) Digestable {
	d, err := Reflect(x)
	if err != nil {
		panic(err)
	}
	return d
}

type reflected struct{ x any }

func (r reflected) UnambiguouslyEncode(v *wire.Value) {
	if err := func() (err error) {
		defer recoverError(&err)
		encodeValue(v, r.x)
		return nil
	}(); err != nil {
		panic(err)
	}
}

func checkReflect(x any) (err error) {
	defer recoverError(&err)
	encodeReflect(wire.BufferFunc(func([]byte) {}), x)
	return nil
}

func encodeReflect(buf wire.Buffer, x any) {
	v := wire.NewValue(buf)
	encodeValue(v, x)
	v.Finish()
}

func encodeValue(v *wire.Value, x any) {
	if x == nil {
		fail(KindEncode, "UDIGEST-ENC-001", "cannot encode nil")
	}
	rv := reflect.ValueOf(x)
	typeEncoder(rv.Type())(v, rv)
}

func typeEncoder(t reflect.Type) encoderFunc {
	if fi, ok := encoderCache.Load(t); ok {
		return fi.(encoderFunc)
	}

	// Recursive types refer to themselves while their encoder is being
	// built. Hand those references an indirect func that waits for it.
	var (
		wg sync.WaitGroup
		f  encoderFunc
	)
	wg.Add(1)
	fi, loaded := encoderCache.LoadOrStore(t, encoderFunc(func(v *wire.Value, rv reflect.Value) {
		wg.Wait()
		f(v, rv)
	}))
	if loaded {
		return fi.(encoderFunc)
	}
	f = newTypeEncoder(t)
	wg.Done()
	encoderCache.Store(t, f)
	return f
}

func newTypeEncoder(t reflect.Type) encoderFunc {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && t.Implements(digestableType) {
		return digestableEncoder
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(digestableType) {
		return newCondAddrEncoder(addrDigestableEncoder)
	}
	if t == bigIntType {
		return bigIntEncoder
	}
	if t.Kind() == reflect.Struct && t.Implements(variantType) {
		return newVariantEncoder(t)
	}
	if t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(variantType) {
		return newCondAddrEncoder(newAddrVariantEncoder(t))
	}

	switch t.Kind() {
	case reflect.Bool:
		return boolEncoder
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intEncoder
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintEncoder
	case reflect.String:
		return stringEncoder
	case reflect.Interface:
		return interfaceEncoder
	case reflect.Pointer:
		return newPtrEncoder(t)
	case reflect.Struct:
		return newStructEncoder(t)
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 && !t.Elem().Implements(digestableType) {
			return bytesEncoder
		}
		return newSeqEncoder(t)
	case reflect.Map:
		return unsupportedEncoder(t, "maps have no canonical order; use a sorted or sortedset field, SortedMap or SortedSet")
	default:
		return unsupportedEncoder(t, "no canonical encoding")
	}
}

func unsupportedEncoder(t reflect.Type, why string) encoderFunc {
	return func(*wire.Value, reflect.Value) {
		fail(KindUnsupported, "UDIGEST-TYPE-001", "unsupported type %s: %s", t, why)
	}
}

func digestableEncoder(v *wire.Value, rv reflect.Value) {
	rv.Interface().(Digestable).UnambiguouslyEncode(v)
}

func addrDigestableEncoder(v *wire.Value, rv reflect.Value) {
	rv.Addr().Interface().(Digestable).UnambiguouslyEncode(v)
}

// newCondAddrEncoder uses the pointer method set when the value is
// addressable, and a copy otherwise.
func newCondAddrEncoder(canAddr encoderFunc) encoderFunc {
	return func(v *wire.Value, rv reflect.Value) {
		if rv.CanAddr() {
			canAddr(v, rv)
			return
		}
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		canAddr(v, p.Elem())
	}
}

func bigIntEncoder(v *wire.Value, rv reflect.Value) {
	x := new(big.Int)
	if rv.CanAddr() {
		x = rv.Addr().Interface().(*big.Int)
	} else {
		bi := rv.Interface().(big.Int)
		x.Set(&bi)
	}
	EncodeBigInt(v, x)
}

func boolEncoder(v *wire.Value, rv reflect.Value) {
	if rv.Bool() {
		EncodeUint(v, 1)
		return
	}
	EncodeUint(v, 0)
}

func intEncoder(v *wire.Value, rv reflect.Value)    { EncodeInt(v, rv.Int()) }
func uintEncoder(v *wire.Value, rv reflect.Value)   { EncodeUint(v, rv.Uint()) }
func stringEncoder(v *wire.Value, rv reflect.Value) { v.Text(rv.String()) }

func charEncoder(v *wire.Value, rv reflect.Value) {
	EncodeUint(v, uint64(uint32(rv.Int())))
}

func bytesEncoder(v *wire.Value, rv reflect.Value) {
	l := v.Leaf()
	if rv.Kind() == reflect.Slice {
		l.Append(rv.Bytes())
	} else if rv.CanAddr() {
		l.Append(rv.Bytes())
	} else {
		for i := 0; i < rv.Len(); i++ {
			l.Append([]byte{byte(rv.Index(i).Uint())})
		}
	}
	l.Finish()
}

func interfaceEncoder(v *wire.Value, rv reflect.Value) {
	if rv.IsNil() {
		fail(KindEncode, "UDIGEST-ENC-001", "cannot encode nil %s", rv.Type())
	}
	e := rv.Elem()
	typeEncoder(e.Type())(v, e)
}

func newPtrEncoder(t reflect.Type) encoderFunc {
	elem := typeEncoder(t.Elem())
	return func(v *wire.Value, rv reflect.Value) {
		if rv.IsNil() {
			fail(KindEncode, "UDIGEST-ENC-001", "cannot encode nil %s; mark the field optional", rv.Type())
		}
		elem(v, rv.Elem())
	}
}

func newSeqEncoder(t reflect.Type) encoderFunc {
	elem := typeEncoder(t.Elem())
	return func(v *wire.Value, rv reflect.Value) {
		l := v.List()
		for i := 0; i < rv.Len(); i++ {
			elem(l.Item(), rv.Index(i))
		}
		l.Finish()
	}
}

type field struct {
	name  string
	index int
	enc   encoderFunc
}

type structPlan struct {
	tag    string
	tagged bool
	fields []field
}

func (p *structPlan) encode(s *wire.Struct, rv reflect.Value) {
	if p.tagged {
		s.SetTag([]byte(p.tag))
	}
	for _, f := range p.fields {
		f.enc(s.Field(f.name), rv.Field(f.index))
	}
	s.Finish()
}

func newStructEncoder(t reflect.Type) encoderFunc {
	p := newStructPlan(t)
	return func(v *wire.Value, rv reflect.Value) {
		p.encode(v.Struct(), rv)
	}
}

func newVariantEncoder(t reflect.Type) encoderFunc {
	p := newStructPlan(t)
	return func(v *wire.Value, rv reflect.Value) {
		name := rv.Interface().(Variant).DigestVariant()
		p.encode(v.Enum().Variant(name), rv)
	}
}

func newAddrVariantEncoder(t reflect.Type) encoderFunc {
	p := newStructPlan(t)
	return func(v *wire.Value, rv reflect.Value) {
		name := rv.Addr().Interface().(Variant).DigestVariant()
		p.encode(v.Enum().Variant(name), rv)
	}
}

func newStructPlan(t reflect.Type) *structPlan {
	p := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup("udigest")
		if sf.Name == "_" {
			if rest, ok := strings.CutPrefix(tag, "tag="); ok {
				p.tag, p.tagged = rest, true
			}
			continue
		}
		if !sf.IsExported() || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if !hasTag || name == "" {
			name = sf.Name
		}
		p.fields = append(p.fields, field{
			name:  name,
			index: i,
			enc:   fieldEncoder(t, sf, opts),
		})
	}
	return p
}

func fieldEncoder(owner reflect.Type, sf reflect.StructField, opts string) encoderFunc {
	ft := sf.Type
	if name, ok := strings.CutPrefix(opts, "with="); ok && name != "" {
		return newWithEncoder(owner, sf.Name, name)
	}
	switch opts {
	case "":
		return typeEncoder(ft)
	case "bytes":
		switch {
		case ft.Kind() == reflect.String:
			return stringEncoder
		case (ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array) && ft.Elem().Kind() == reflect.Uint8:
			return bytesEncoder
		}
	case "char":
		if ft.Kind() == reflect.Int32 {
			return charEncoder
		}
	case "optional":
		if ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Interface {
			return newOptionalEncoder(ft)
		}
	case "sorted":
		if ft.Kind() == reflect.Map && isOrderedKey(ft.Key()) {
			return newSortedMapEncoder(ft)
		}
	case "sortedset":
		if ft.Kind() == reflect.Map && isOrderedKey(ft.Key()) {
			return newSortedSetEncoder(ft)
		}
	default:
		return unsupportedEncoder(owner, fmt.Sprintf("field %s: unknown udigest option %q", sf.Name, opts))
	}
	return unsupportedEncoder(owner, fmt.Sprintf("field %s: option %q does not apply to %s", sf.Name, opts, ft))
}

func newOptionalEncoder(t reflect.Type) encoderFunc {
	var elem encoderFunc
	if t.Kind() == reflect.Pointer {
		elem = typeEncoder(t.Elem())
	}
	return func(v *wire.Value, rv reflect.Value) {
		e := v.Enum()
		if rv.IsNil() {
			e.Variant("None").Finish()
			return
		}
		s := e.Variant("Some")
		if elem != nil {
			elem(s.Field("0"), rv.Elem())
		} else {
			interfaceEncoder(s.Field("0"), rv)
		}
		s.Finish()
	}
}

func isOrderedKey(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func keyEncoder(t reflect.Type) encoderFunc {
	switch t.Kind() {
	case reflect.String:
		return stringEncoder
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intEncoder
	default:
		return uintEncoder
	}
}

func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		switch a.Kind() {
		case reflect.String:
			return strings.Compare(a.String(), b.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(a.Int(), b.Int())
		default:
			return cmp.Compare(a.Uint(), b.Uint())
		}
	})
	return keys
}

func newSortedMapEncoder(t reflect.Type) encoderFunc {
	key := keyEncoder(t.Key())
	elem := typeEncoder(t.Elem())
	return func(v *wire.Value, rv reflect.Value) {
		l := v.List()
		for _, k := range sortedMapKeys(rv) {
			pair := l.List()
			key(pair.Item(), k)
			elem(pair.Item(), rv.MapIndex(k))
			pair.Finish()
		}
		l.Finish()
	}
}

func newSortedSetEncoder(t reflect.Type) encoderFunc {
	key := keyEncoder(t.Key())
	return func(v *wire.Value, rv reflect.Value) {
		l := v.List()
		for _, k := range sortedMapKeys(rv) {
			key(l.Item(), k)
		}
		l.Finish()
	}
}
