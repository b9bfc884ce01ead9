package doc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/udigest/compliance"
)

// FromAny converts the generic values produced by encoding/json, yaml.v3
// and cbor decoders (nil, bool, integers, floats, strings, byte slices,
// []any, map[string]any, map[any]any).
func FromAny(x any, mode compliance.ComplianceMode) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case []byte:
		return BytesValue(t), nil
	case cbor.ByteString:
		return BytesValue(t.Bytes()), nil
	case int:
		return Int64Value(int64(t)), nil
	case int8:
		return Int64Value(int64(t)), nil
	case int16:
		return Int64Value(int64(t)), nil
	case int32:
		return Int64Value(int64(t)), nil
	case int64:
		return Int64Value(t), nil
	case uint:
		return Uint64Value(uint64(t)), nil
	case uint8:
		return Uint64Value(uint64(t)), nil
	case uint16:
		return Uint64Value(uint64(t)), nil
	case uint32:
		return Uint64Value(uint64(t)), nil
	case uint64:
		return Uint64Value(t), nil
	case *big.Int:
		if t == nil {
			return NullValue(), nil
		}
		return IntValue(t), nil
	case big.Int:
		return IntValue(&t), nil
	case json.Number:
		return number(string(t), mode)
	case float32:
		return floatValue(float64(t), mode)
	case float64:
		return floatValue(t, mode)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromAny(item, mode)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ArrayValue(items...), nil
	case map[string]any:
		members := make([]Member, 0, len(t))
		for k, item := range t {
			v, err := FromAny(item, mode)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: StringValue(k), Value: v})
		}
		return ObjectValue(members...), nil
	case map[any]any:
		members := make([]Member, 0, len(t))
		for k, item := range t {
			kv, err := FromAny(k, mode)
			if err != nil {
				return Value{}, err
			}
			v, err := FromAny(item, mode)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: kv, Value: v})
		}
		obj := ObjectValue(members...)
		// Distinct Go keys (int8(1) and int64(1)) can convert to one key.
		if _, dup := duplicateKey(obj.members); dup {
			return Value{}, newError(KindCanonical, "DOC-CANON-003", "doc: map keys collide after conversion")
		}
		return obj, nil
	case cbor.Tag:
		return Value{}, newError(KindParse, "DOC-PARSE-006", fmt.Sprintf("doc: unsupported CBOR tag %d", t.Number))
	}
	return Value{}, newError(KindParse, "DOC-PARSE-006", fmt.Sprintf("doc: unsupported value of type %T", x))
}

func floatValue(f float64, mode compliance.ComplianceMode) (Value, error) {
	if mode == compliance.Strict {
		return Value{}, newError(KindCanonical, "DOC-CANON-002", "doc: floating point number "+CanonicalFloat(f)+" rejected in strict mode")
	}
	return FloatValue(f)
}
