package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	"xdao.co/udigest/algo"
	"xdao.co/udigest/cidutil"
)

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var alg string
	var size int
	in.register(fs)
	fs.StringVar(&alg, "alg", "sha256", "Hash algorithm (see udigest algorithms)")
	fs.IntVar(&size, "size", 0, "Output size in bytes for XOF and variable algorithms (0 = default)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest hash [flags] <file> [<file> ...]")
		return 2
	}
	a, err := algo.Lookup(alg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --alg: %v\n", err)
		return 2
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	sum, err := a.Sum(s, size)
	if err != nil {
		fmt.Fprintf(errOut, "hash: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, hex.EncodeToString(sum))
	return 0
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var raw bool
	in.register(fs)
	fs.BoolVar(&raw, "raw", false, "Write the stream bytes instead of hex")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest encode [flags] <file> [<file> ...]")
		return 2
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	b := s.Bytes()
	if raw {
		_, _ = out.Write(b)
		return 0
	}
	fmt.Fprintln(out, hex.EncodeToString(b))
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var alg string
	var size int
	in.register(fs)
	fs.StringVar(&alg, "alg", "sha256", "Hash algorithm (see udigest algorithms)")
	fs.IntVar(&size, "size", 0, "Output size in bytes (0 = default)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest cid [flags] <file> [<file> ...]")
		return 2
	}
	a, err := algo.Lookup(alg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --alg: %v\n", err)
		return 2
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	id, err := cidutil.StreamCID(a, s, size)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id)
	return 0
}

func cmdAlgorithms(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(errOut, "usage: udigest algorithms")
		return 2
	}
	for _, name := range algo.Names() {
		a := algo.MustLookup(name)
		limit := ""
		switch {
		case a.Kind == algo.Fixed:
		case a.MaxSize > 0:
			limit = fmt.Sprintf(" (1..%d)", a.MaxSize)
		default:
			limit = " (any)"
		}
		fmt.Fprintf(out, "%s\t%s\t%d%s\t0x%x\n", a.Name, a.Kind, a.Size, limit, a.Code)
	}
	return 0
}
