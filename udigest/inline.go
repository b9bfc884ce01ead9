package udigest

import "xdao.co/udigest/wire"

// InlineStruct describes a struct without declaring a type. The stream is
// identical to that of a declared struct with the same fields and tag.
//
//	udigest.Inline().
//		Tag("app.transfer.v1").
//		Field("from", udigest.String(from)).
//		Field("amount", udigest.Uint(amount))
type InlineStruct struct {
	tag    string
	tagged bool
	fields []inlineField
}

type inlineField struct {
	name  string
	value Digestable
}

// Inline starts an empty struct.
func Inline() *InlineStruct {
	return &InlineStruct{}
}

// Field appends a field. Fields are encoded in the order they are added.
func (s *InlineStruct) Field(name string, value Digestable) *InlineStruct {
	s.fields = append(s.fields, inlineField{name: name, value: value})
	return s
}

// Tag sets the domain separation tag of the struct.
func (s *InlineStruct) Tag(tag string) *InlineStruct {
	s.tag, s.tagged = tag, true
	return s
}

func (s *InlineStruct) UnambiguouslyEncode(v *wire.Value) {
	st := v.Struct()
	if s.tagged {
		st.SetTag([]byte(s.tag))
	}
	for _, f := range s.fields {
		f.value.UnambiguouslyEncode(st.Field(f.name))
	}
	st.Finish()
}
