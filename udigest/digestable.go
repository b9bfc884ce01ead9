package udigest

import "xdao.co/udigest/wire"

// Digestable is implemented by values that can encode themselves into the
// canonical stream.
//
// An implementation must turn v into exactly one leaf, list, struct or enum
// and should finish it before returning. Encoding the same value twice must
// produce the same stream.
type Digestable interface {
	UnambiguouslyEncode(v *wire.Value)
}

// Func adapts an encoding function to Digestable.
type Func func(v *wire.Value)

func (f Func) UnambiguouslyEncode(v *wire.Value) { f(v) }

// EncodeTo writes the canonical stream of d to buf.
func EncodeTo(buf wire.Buffer, d Digestable) {
	v := wire.NewValue(buf)
	d.UnambiguouslyEncode(v)
	v.Finish()
}

// Encode returns the canonical stream of d.
func Encode(d Digestable) []byte {
	var buf wire.Bytes
	EncodeTo(&buf, d)
	return buf.Bytes()
}
