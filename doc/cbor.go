package doc

import (
	"github.com/fxamacker/cbor/v2"

	"xdao.co/udigest/compliance"
)

var cborDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IntDec:          cbor.IntDecConvertSignedOrBigInt,
		BigIntDec:       cbor.BigIntDecodePointer,
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// FromCBOR converts exactly one CBOR data item. Duplicate map keys are
// always rejected. Bignums (tags 2 and 3) become Int nodes; other tags are
// rejected.
func FromCBOR(data []byte, mode compliance.ComplianceMode) (Value, error) {
	var x any
	if err := cborDecMode.Unmarshal(data, &x); err != nil {
		return Value{}, wrapError(KindParse, "DOC-PARSE-001", "doc: invalid CBOR", err)
	}
	return FromAny(x, mode)
}
