// Package bundle moves stored streams between stores as deterministic TAR
// archives.
//
// Layout:
//
//	blocks/<cid>   one entry per object, sorted by CID string
//	index.json     optional, non-authoritative index
//
// The index carries a manifest_digest: the sha256 udigest of the manifest
// (format version, blocks, labels), so the index itself can be checked
// without trusting the JSON encoding.
package bundle

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	indexName    = "index.json"
	blocksPrefix = "blocks/"
	manifestTag  = "xdao.udigest.bundle.manifest.v1"
)

var epoch = time.Unix(0, 0).UTC()

// ErrManifestDigest is returned when an index does not match its
// manifest_digest.
var ErrManifestDigest = errors.New("bundle: manifest digest mismatch")

// Block is one entry in the index.
type Block struct {
	CID  cid.Cid
	Size int
}

// Label is an optional, non-authoritative name for a CID.
type Label struct {
	Name string
	CID  cid.Cid
}

// Manifest is the content of index.json minus its own digest.
type Manifest struct {
	Version int
	Blocks  []Block
	Labels  []Label
}

func (m Manifest) UnambiguouslyEncode(v *wire.Value) {
	s := v.Struct().WithTag([]byte(manifestTag))
	udigest.EncodeUint(s.Field("version"), uint64(m.Version))

	blocks := s.Field("blocks").List()
	for _, b := range m.Blocks {
		item := blocks.Item().Struct()
		item.Field("cid").Bytes(b.CID.Bytes())
		udigest.EncodeUint(item.Field("size"), uint64(b.Size))
	}
	blocks.Finish()

	labels := s.Field("labels").List()
	for _, l := range m.Labels {
		item := labels.Item().Struct()
		item.Field("name").Text(l.Name)
		item.Field("cid").Bytes(l.CID.Bytes())
	}
	labels.Finish()
	s.Finish()
}

// Digest returns the hex sha256 udigest of m.
func (m Manifest) Digest() string {
	return hex.EncodeToString(udigest.Hash(sha256.New, m))
}

// ExportOptions controls Export.
type ExportOptions struct {
	// Labels maps names to CIDs in the index.
	Labels map[string]cid.Cid
	// IncludeIndex writes index.json.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle holding the objects ids name.
// Entry order is by CID string, headers are normalized and every object is
// checked against its CID before it is written.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) (Manifest, error) {
	m := Manifest{Version: FormatVersion}
	if cas == nil {
		return m, fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return m, storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	slices.Sort(names)

	labels := make([]string, 0, len(opts.Labels))
	for name, id := range opts.Labels {
		if name == "" {
			return m, fmt.Errorf("bundle: empty label name")
		}
		if !id.Defined() {
			return m, storage.ErrInvalidCID
		}
		labels = append(labels, name)
	}
	slices.Sort(labels)
	for _, name := range labels {
		m.Labels = append(m.Labels, Label{Name: name, CID: opts.Labels[name]})
	}

	tw := tar.NewWriter(w)
	for _, s := range names {
		id := uniq[s]
		b, err := cas.Get(id)
		if err == nil {
			err = storage.Check(id, b)
		}
		if err == nil {
			err = writeEntry(tw, blocksPrefix+s, b)
		}
		if err != nil {
			_ = tw.Close()
			return m, err
		}
		m.Blocks = append(m.Blocks, Block{CID: id, Size: len(b)})
	}

	if opts.IncludeIndex {
		b, err := json.Marshal(m.index())
		if err != nil {
			_ = tw.Close()
			return m, err
		}
		if err := writeEntry(tw, indexName, append(b, '\n')); err != nil {
			_ = tw.Close()
			return m, err
		}
	}
	return m, tw.Close()
}

// ImportOptions controls Import.
type ImportOptions struct {
	// IgnoreUnknown skips entries that are neither blocks nor the index.
	// By default they fail the import.
	IgnoreUnknown bool
	// RequireIndex fails the import when index.json is missing, or when it
	// lists a block the archive does not contain.
	RequireIndex bool
}

// Result describes an imported bundle.
type Result struct {
	Blocks []cid.Cid
	// Manifest is the verified index, nil when the bundle has none.
	Manifest *Manifest
}

// Import reads a bundle and stores every block in cas. Each block must hash
// to the CID in its name. An index, when present, must match its
// manifest_digest.
func Import(r io.Reader, cas storage.CAS, opts ImportOptions) (Result, error) {
	var res Result
	if cas == nil {
		return res, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]bool{}
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return res, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return res, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		switch {
		case name == indexName:
			m, err := readIndex(tr)
			if err != nil {
				return res, err
			}
			res.Manifest = m
		case strings.HasPrefix(name, blocksPrefix):
			id, err := importBlock(tr, cas, strings.TrimPrefix(name, blocksPrefix))
			if err != nil {
				return res, err
			}
			if seen[id.String()] {
				return res, fmt.Errorf("bundle: duplicate block entry: %s", id)
			}
			seen[id.String()] = true
			res.Blocks = append(res.Blocks, id)
		case opts.IgnoreUnknown:
		default:
			return res, fmt.Errorf("bundle: unknown entry: %s", name)
		}
	}

	if opts.RequireIndex {
		if res.Manifest == nil {
			return res, fmt.Errorf("bundle: missing %s", indexName)
		}
		for _, b := range res.Manifest.Blocks {
			if !seen[b.CID.String()] {
				return res, fmt.Errorf("bundle: index lists missing block %s", b.CID)
			}
		}
	}
	return res, nil
}

func importBlock(r io.Reader, cas storage.CAS, name string) (cid.Cid, error) {
	id, err := cid.Decode(name)
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return cid.Undef, err
	}
	if err := storage.Check(id, payload); err != nil {
		return cid.Undef, err
	}
	got, err := cas.Put(payload)
	if err != nil {
		return cid.Undef, err
	}
	if !got.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

type indexJSON struct {
	Version        int          `json:"version"`
	CIDCodec       string       `json:"cid_codec"`
	Multihash      string       `json:"multihash"`
	Blocks         []indexBlock `json:"blocks"`
	Labels         []indexLabel `json:"labels,omitempty"`
	ManifestDigest string       `json:"manifest_digest"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func (m Manifest) index() indexJSON {
	idx := indexJSON{
		Version:        m.Version,
		CIDCodec:       "raw",
		Multihash:      "sha2-256",
		Blocks:         []indexBlock{},
		ManifestDigest: m.Digest(),
	}
	for _, b := range m.Blocks {
		idx.Blocks = append(idx.Blocks, indexBlock{CID: b.CID.String(), Size: b.Size})
	}
	for _, l := range m.Labels {
		idx.Labels = append(idx.Labels, indexLabel{Name: l.Name, CID: l.CID.String()})
	}
	return idx
}

func readIndex(r io.Reader) (*Manifest, error) {
	var idx indexJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&idx); err != nil {
		return nil, fmt.Errorf("bundle: %s: %w", indexName, err)
	}
	if idx.Version != FormatVersion {
		return nil, fmt.Errorf("bundle: unsupported index version %d", idx.Version)
	}
	m := &Manifest{Version: idx.Version}
	for _, b := range idx.Blocks {
		id, err := cid.Decode(b.CID)
		if err != nil {
			return nil, storage.ErrInvalidCID
		}
		m.Blocks = append(m.Blocks, Block{CID: id, Size: b.Size})
	}
	for _, l := range idx.Labels {
		id, err := cid.Decode(l.CID)
		if err != nil {
			return nil, storage.ErrInvalidCID
		}
		m.Labels = append(m.Labels, Label{Name: l.Name, CID: id})
	}
	if m.Digest() != idx.ManifestDigest {
		return nil, ErrManifestDigest
	}
	return m, nil
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// cleanTarPath normalizes an entry name and returns "" for anything that
// could escape the archive root.
func cleanTarPath(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
