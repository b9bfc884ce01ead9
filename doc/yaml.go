package doc

import (
	"encoding/base64"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"xdao.co/udigest/compliance"
)

// maxYAMLNodes bounds alias expansion.
const maxYAMLNodes = 1 << 20

// FromYAML converts the first YAML document in data. Duplicate mapping keys
// and merge keys are always rejected; floats are rejected in Strict mode.
func FromYAML(data []byte, mode compliance.ComplianceMode) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Value{}, wrapError(KindParse, "DOC-PARSE-001", "doc: invalid YAML", err)
	}
	w := yamlWalker{mode: mode, budget: maxYAMLNodes}
	return w.node(&root)
}

type yamlWalker struct {
	mode   compliance.ComplianceMode
	budget int
}

func (w *yamlWalker) node(n *yaml.Node) (Value, error) {
	w.budget--
	if w.budget < 0 {
		return Value{}, newError(KindParse, "DOC-PARSE-004", "doc: YAML document expands to too many nodes")
	}
	switch n.Kind {
	case 0:
		return NullValue(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NullValue(), nil
		}
		return w.node(n.Content[0])
	case yaml.AliasNode:
		return w.node(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := w.node(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ArrayValue(items...), nil
	case yaml.MappingNode:
		return w.mapping(n)
	case yaml.ScalarNode:
		return w.scalar(n)
	}
	return Value{}, newError(KindParse, "DOC-PARSE-001", "doc: unknown YAML node kind")
}

func (w *yamlWalker) mapping(n *yaml.Node) (Value, error) {
	members := make([]Member, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].ShortTag() == "!!merge" {
			return Value{}, newError(KindParse, "DOC-PARSE-005", "doc: YAML merge keys are not supported")
		}
		k, err := w.node(n.Content[i])
		if err != nil {
			return Value{}, err
		}
		v, err := w.node(n.Content[i+1])
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: k, Value: v})
	}
	obj := ObjectValue(members...)
	if _, dup := duplicateKey(obj.members); dup {
		return Value{}, newError(KindCanonical, "DOC-CANON-003", "doc: duplicate mapping key at line "+strconv.Itoa(n.Line))
	}
	return obj, nil
}

func (w *yamlWalker) scalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return NullValue(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, wrapError(KindParse, "DOC-PARSE-003", "doc: invalid YAML bool", err)
		}
		return BoolValue(b), nil
	case "!!int":
		i, ok := new(big.Int).SetString(n.Value, 0)
		if !ok {
			var x int64
			if err := n.Decode(&x); err != nil {
				return Value{}, wrapError(KindParse, "DOC-PARSE-003", "doc: invalid YAML int "+strconv.Quote(n.Value), err)
			}
			i = big.NewInt(x)
		}
		return Value{kind: Int, i: i}, nil
	case "!!float":
		if w.mode == compliance.Strict {
			return Value{}, newError(KindCanonical, "DOC-CANON-002", "doc: floating point number "+n.Value+" rejected in strict mode")
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, wrapError(KindParse, "DOC-PARSE-003", "doc: invalid YAML float", err)
		}
		return FloatValue(f)
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return Value{}, wrapError(KindParse, "DOC-PARSE-003", "doc: invalid YAML binary", err)
		}
		return BytesValue(b), nil
	}
	return StringValue(n.Value), nil
}
