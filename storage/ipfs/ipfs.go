// Package ipfs is a storage.CAS backed by the local Kubo "ipfs" CLI.
//
// It works offline on the local IPFS repo and does not need a daemon.
// Reachability is not validity: every block read back is checked against
// its CID.
package ipfs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/udigest/storage"
)

// CAS shells out to ipfs block put/get/stat. Blocks are stored as raw
// CIDv1 sha2-256, matching storage.Sum.
type CAS struct {
	bin string
	env []string
	pin bool
}

type Options struct {
	// Bin is the path to the ipfs binary. Defaults to "ipfs".
	Bin string
	// RepoPath sets IPFS_PATH for every command when non-empty.
	RepoPath string
	// Pin pins blocks on Put.
	Pin bool
}

func New(opts Options) *CAS {
	c := &CAS{bin: opts.Bin, pin: opts.Pin}
	if c.bin == "" {
		c.bin = "ipfs"
	}
	if opts.RepoPath != "" {
		c.env = append(os.Environ(), "IPFS_PATH="+opts.RepoPath)
	}
	return c
}

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	want, err := storage.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	args := []string{"block", "put", "--quiet", "--cid-codec=raw", "--mhtype=sha2-256", "--mhlen=32"}
	if c.pin {
		args = append(args, "--pin=true")
	}
	out, err := c.run(data, args...)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if !got.Equals(want) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return want, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	out, err := c.run(nil, "block", "get", id.String())
	if err != nil {
		if notFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := storage.Check(id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := c.run(nil, "block", "stat", "--offline", id.String())
	return err == nil
}

func (c *CAS) run(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(c.bin, args...)
	cmd.Env = c.env
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if msg := strings.TrimSpace(string(ee.Stderr)); msg != "" {
			return nil, fmt.Errorf("ipfs: %s", msg)
		}
	}
	return nil, fmt.Errorf("ipfs: %w", err)
}

func notFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found")
}
