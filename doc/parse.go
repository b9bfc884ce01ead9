package doc

import (
	"bytes"
	"path/filepath"
	"strings"

	"xdao.co/udigest/compliance"
)

// Format is a document syntax.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "cbor":
		return CBOR, nil
	}
	return "", newError(KindParse, "DOC-PARSE-007", "doc: unknown format "+s+" (want json, yaml or cbor)")
}

// FormatFromPath guesses the format from a file extension, defaulting to
// JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return JSON
}

// Parse converts data in the given format.
func Parse(format Format, data []byte, mode compliance.ComplianceMode) (Value, error) {
	switch format {
	case JSON:
		return FromJSON(bytes.NewReader(data), mode)
	case YAML:
		return FromYAML(data, mode)
	case CBOR:
		return FromCBOR(data, mode)
	}
	return Value{}, newError(KindParse, "DOC-PARSE-007", "doc: unknown format "+string(format))
}
