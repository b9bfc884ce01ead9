package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/bundle"
	"xdao.co/udigest/storage/casconfig"
	"xdao.co/udigest/storage/casregistry"

	_ "xdao.co/udigest/storage/grpccas"
	_ "xdao.co/udigest/storage/ipfs"
	_ "xdao.co/udigest/storage/localfs"
)

// storeFlags selects a CAS either by backend name plus backend flags, or
// by a casconfig file.
type storeFlags struct {
	backend   string
	config    string
	preferred string
	verbose   bool
}

func (f *storeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&f.config, "cas-config", "", "CAS config file (JSON or YAML); overrides --backend")
	fs.StringVar(&f.preferred, "prefer", "", "Backend name or id to write to first (with --cas-config)")
	fs.BoolVar(&f.verbose, "verbose", false, "Log storage operations to stderr")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
}

func (f *storeFlags) open(errOut io.Writer) (storage.CAS, func() error, error) {
	log := newLogger(errOut, f.verbose)
	if f.config != "" {
		cfg, err := casconfig.LoadFile(f.config)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(casregistry.UsageCLI, casconfig.Options{Preferred: f.preferred, Log: log})
	}
	cas, closeFn, err := casregistry.Open(f.backend, casregistry.UsageCLI)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return storage.Logged{CAS: cas, Log: log, Backend: f.backend}, closeFn, nil
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var st storeFlags
	in.register(fs)
	st.register(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest store [flags] <file> [<file> ...]")
		return 2
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	cas, closeFn, err := st.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 2
	}
	defer closeFn()

	id, err := storage.PutStream(cas, s)
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id)
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var st storeFlags
	var raw bool
	st.register(fs)
	fs.BoolVar(&raw, "raw", false, "Write the stored bytes instead of hex")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: udigest get [flags] <CID>")
		return 2
	}
	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "invalid CID: %v\n", err)
		return 2
	}
	cas, closeFn, err := st.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 2
	}
	defer closeFn()

	b, err := cas.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	if raw {
		_, _ = out.Write(b)
		return 0
	}
	fmt.Fprintln(out, hex.EncodeToString(b))
	return 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: udigest bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var st storeFlags
	var outPath string
	var all bool
	var noIndex bool
	st.register(fs)
	fs.StringVar(&outPath, "out", "", "Bundle file to write")
	fs.BoolVar(&all, "all", false, "Export every object in the store")
	fs.BoolVar(&noIndex, "no-index", false, "Omit index.json")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" || (fs.NArg() == 0 && !all) {
		fmt.Fprintln(errOut, "usage: udigest bundle export [flags] --out <file> [--all] [<CID> ...]")
		return 2
	}
	var ids []cid.Cid
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid CID %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}

	cas, closeFn, err := st.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 2
	}
	defer closeFn()

	if all {
		lister, ok := cas.(storage.Lister)
		if !ok {
			fmt.Fprintf(errOut, "bundle: %v\n", storage.ErrNotListable)
			return 1
		}
		listed, err := lister.List()
		if err != nil {
			fmt.Fprintf(errOut, "bundle: %v\n", err)
			return 1
		}
		ids = append(ids, listed...)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	m, err := bundle.Export(f, cas, ids, bundle.ExportOptions{IncludeIndex: !noIndex})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outPath)
		fmt.Fprintf(errOut, "bundle: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Exported %d blocks\n", len(m.Blocks))
	fmt.Fprintf(out, "Manifest digest: %s\n", m.Digest())
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var st storeFlags
	var opts bundle.ImportOptions
	st.register(fs)
	fs.BoolVar(&opts.RequireIndex, "require-index", false, "Fail unless index.json is present and complete")
	fs.BoolVar(&opts.IgnoreUnknown, "ignore-unknown", false, "Skip entries that are not blocks")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: udigest bundle import [flags] <file>")
		return 2
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open bundle: %v\n", err)
		return 1
	}
	defer f.Close()

	cas, closeFn, err := st.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 2
	}
	defer closeFn()

	res, err := bundle.Import(f, cas, opts)
	if err != nil {
		if errors.Is(err, bundle.ErrManifestDigest) {
			fmt.Fprintln(errOut, "bundle: index.json does not match its manifest_digest")
			return 1
		}
		fmt.Fprintf(errOut, "bundle: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Imported %d blocks\n", len(res.Blocks))
	if res.Manifest != nil {
		fmt.Fprintf(out, "Manifest digest: %s\n", res.Manifest.Digest())
	}
	return 0
}
