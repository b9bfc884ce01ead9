// Command udigest computes canonical digests of JSON, YAML and CBOR
// documents, signs them and moves their canonical streams through a
// content-addressed store.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"xdao.co/udigest/compliance"
	"xdao.co/udigest/doc"
	"xdao.co/udigest/udigest"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "algorithms":
		return cmdAlgorithms(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "udigest: canonical digests of structured documents")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  udigest hash [--alg <a>] [--size <n>] [--format json|yaml|cbor] [--mode strict|permissive] [--tag <t>] <file> [<file> ...]")
	fmt.Fprintln(w, "  udigest encode [--raw] [input flags] <file> [<file> ...]")
	fmt.Fprintln(w, "  udigest cid [--alg <a>] [--size <n>] [input flags] <file> [<file> ...]")
	fmt.Fprintln(w, "  udigest store [store flags] [input flags] <file> [<file> ...]")
	fmt.Fprintln(w, "  udigest get [store flags] [--raw] <CID>")
	fmt.Fprintln(w, "  udigest sign [--alg ed25519|dilithium3] [--hash <a>] (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [input flags] <file> ...")
	fmt.Fprintln(w, "  udigest verify --sig <signature.json> [--signer-key <key>] [input flags] <file> [<file> ...]")
	fmt.Fprintln(w, "  udigest key init|derive|list|export ...")
	fmt.Fprintln(w, "  udigest algorithms")
	fmt.Fprintln(w, "  udigest bundle export [store flags] --out <file> [--all] [<CID> ...]")
	fmt.Fprintln(w, "  udigest bundle import [store flags] [--require-index] <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - several files are hashed as one batch (a list tagged udigest.list)")
	fmt.Fprintln(w, "  - --tag prefixes the stream with a header naming the domain tag")
	fmt.Fprintln(w, "  - the format defaults to the file extension, then json")
	fmt.Fprintln(w, "  - strict mode (default) rejects floats and duplicate keys")
	fmt.Fprintln(w, "  - store flags: --backend <name> | --cas-config <file>, plus backend flags (see udigest store -h)")
	fmt.Fprintln(w, "  - the CID printed by store equals 'udigest cid --alg sha256' of the same input")
}

// inputFlags selects how document files become a digestable stream.
type inputFlags struct {
	format string
	mode   string
	tag    string
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.format, "format", "", "Document format: json, yaml or cbor (default: from extension)")
	fs.StringVar(&f.mode, "mode", "strict", "Compliance mode: strict or permissive")
	fs.StringVar(&f.tag, "tag", "", "Domain tag written in a header before the value")
}

// stream parses every path and returns the stream to digest: the single
// document, or a batch when there are several.
func (f *inputFlags) stream(paths []string) (udigest.Stream, error) {
	mode, err := compliance.ParseMode(f.mode)
	if err != nil {
		return nil, err
	}
	var forced doc.Format
	if f.format != "" {
		if forced, err = doc.ParseFormat(f.format); err != nil {
			return nil, err
		}
	}

	values := make([]udigest.Digestable, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		format := forced
		if format == "" {
			format = doc.FormatFromPath(path)
		}
		v, err := doc.Parse(format, data, mode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		values = append(values, v)
	}

	s := udigest.Single(values[0])
	if len(values) > 1 {
		s = udigest.Batch(values...)
	}
	if f.tag != "" {
		s = udigest.WithHeader(udigest.String(f.tag), s)
	}
	return s, nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
