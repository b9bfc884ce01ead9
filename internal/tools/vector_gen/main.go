// vector_gen rewrites the udigest-1 conformance vectors.
//
// Run from the module root:
//
//	go run ./internal/tools/vector_gen [-check]
//
// With -check nothing is written; the tool exits non-zero when a stored
// vector differs from what the encoder produces.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"xdao.co/udigest/internal/vectors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("vector_gen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dir := fs.String("dir", vectors.Dir, "vector directory")
	check := fs.Bool("check", false, "compare instead of writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	stale := 0
	for _, name := range vectors.Names() {
		stream := vectors.Stream(name)
		sum := sha256.Sum256(stream)
		files := map[string]string{
			name + ".stream": hex.EncodeToString(stream),
			name + ".sha256": hex.EncodeToString(sum[:]),
		}
		for file, want := range files {
			path := filepath.Join(*dir, file)
			if *check {
				got, err := os.ReadFile(path)
				if err != nil || strings.TrimSpace(string(got)) != want {
					fmt.Fprintf(errOut, "stale: %s\n", path)
					stale++
				}
				continue
			}
			if err := os.MkdirAll(*dir, 0o755); err != nil {
				fmt.Fprintln(errOut, err)
				return 1
			}
			if err := os.WriteFile(path, []byte(want+"\n"), 0o644); err != nil {
				fmt.Fprintln(errOut, err)
				return 1
			}
		}
		fmt.Fprintf(out, "%s\t%x\n", name, sum)
	}
	if stale > 0 {
		return 1
	}
	return 0
}
