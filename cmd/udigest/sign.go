package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/udigest/keys"
)

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var alg, hashAlg, keyDir string
	var seedHex, signer, signerRole, keyFile string
	in.register(fs)
	fs.StringVar(&alg, "alg", keys.Ed25519, "Signature algorithm: ed25519 or dilithium3")
	fs.StringVar(&hashAlg, "hash", "sha256", "Digest algorithm signed over")
	fs.StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.xdao/udigest/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Signing seed as 64 hex chars")
	fs.StringVar(&signer, "signer", "", "Stored key name")
	fs.StringVar(&signerRole, "signer-role", "", "Role of the stored key")
	fs.StringVar(&keyFile, "key-file", "", "Seed file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest sign [flags] <file> [<file> ...]")
		return 2
	}
	ks, err := keys.OpenKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signer, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load signer: %v\n", err)
		return 2
	}
	sg, err := keys.NewSigner(alg, seed)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --alg: %v\n", err)
		return 2
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	sig, err := sg.Sign(s, hashAlg)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sig); err != nil {
		fmt.Fprintf(errOut, "write signature: %v\n", err)
		return 1
	}
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var in inputFlags
	var sigPath, signerKey string
	in.register(fs)
	fs.StringVar(&sigPath, "sig", "", "Signature JSON written by udigest sign")
	fs.StringVar(&signerKey, "signer-key", "", "Require this ed25519 signer key (as printed by udigest key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if sigPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: udigest verify --sig <signature.json> [flags] <file> [<file> ...]")
		return 2
	}
	b, err := os.ReadFile(sigPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --sig: %v\n", err)
		return 1
	}
	var sig keys.Signature
	if err := json.Unmarshal(b, &sig); err != nil {
		fmt.Fprintf(errOut, "invalid signature file: %v\n", err)
		return 2
	}
	if signerKey != "" {
		pub, err := keys.ParseSignerKey(signerKey)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --signer-key: %v\n", err)
			return 2
		}
		if sig.Alg != keys.Ed25519 || !bytes.Equal(sig.PublicKey, pub) {
			fmt.Fprintln(errOut, "INVALID: signature is not from --signer-key")
			return 1
		}
	}
	s, err := in.stream(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	if err := keys.Verify(sig, s); err != nil {
		if errors.Is(err, keys.ErrBadSignature) {
			fmt.Fprintln(errOut, "INVALID")
			return 1
		}
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}
