// Package vectors defines the values behind the udigest-1 conformance
// vectors in testdata/conformance/udigest-1.
//
// Each vector is stored as <name>.stream (hex of the canonical stream) and
// <name>.sha256 (hex sha256 of the stream). The files were first produced by
// an independent encoder; vector_gen rewrites them from these definitions.
package vectors

import (
	"math"
	"sort"

	"xdao.co/udigest/udigest"
)

// Dir is the vector directory relative to the module root.
const Dir = "testdata/conformance/udigest-1"

// Person is the struct form of the "person" vector.
type Person struct {
	Name     string   `udigest:"name"`
	Skills   []string `udigest:"skills"`
	JobTitle string   `udigest:"job_title"`
}

// Record is a struct carrying its own domain tag.
type Record struct {
	_  struct{} `udigest:"tag=app.record.v1"`
	ID uint64   `udigest:"id"`
}

var all = map[string]func() []byte{
	"nested_list": func() []byte {
		return udigest.Encode(udigest.Tuple(udigest.String("1234"), udigest.List[udigest.String]{"1", "2"}, udigest.String("abc")))
	},
	"person": func() []byte {
		return udigest.Encode(udigest.Inline().
			Field("name", udigest.String("Alice")).
			Field("skills", udigest.List[udigest.String]{"math", "crypto"}).
			Field("job_title", udigest.String("cryptographer")))
	},
	"integers": func() []byte {
		return udigest.Encode(udigest.Tuple(
			udigest.Uint(0), udigest.Uint(1000), udigest.Int(1000), udigest.Int(-1000), udigest.Int(math.MinInt64),
			udigest.Uint(math.MaxUint64), udigest.Char('😀'),
		))
	},
	"option": func() []byte {
		return udigest.Encode(udigest.Tuple(udigest.Some(udigest.String("x")), udigest.None[udigest.String]()))
	},
	"result": func() []byte {
		return udigest.Encode(udigest.Tuple(udigest.Ok[udigest.Uint, udigest.String](7), udigest.Err[udigest.Uint, udigest.String]("boom")))
	},
	"sorted_map": func() []byte {
		return udigest.Encode(udigest.SortedMap[string, udigest.Uint]{"b": 2, "a": 1})
	},
	"tagged_struct": func() []byte {
		b, err := udigest.EncodeValue(Record{ID: 42})
		if err != nil {
			panic(err)
		}
		return b
	},
	"batch": func() []byte {
		return udigest.Batch(udigest.String("a"), udigest.Uint(1), udigest.List[udigest.Uint]{}).Bytes()
	},
	"header": func() []byte {
		return udigest.WithHeader(udigest.String("app.v1"), udigest.Single(udigest.Inline().Field("id", udigest.Uint(42)))).Bytes()
	},
}

// Names returns the vector names, sorted.
func Names() []string {
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stream returns the canonical stream of the named vector, or nil when
// there is no such vector.
func Stream(name string) []byte {
	build, ok := all[name]
	if !ok {
		return nil
	}
	return build()
}
