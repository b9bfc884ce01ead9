package ipfs

import (
	"flag"
	"strconv"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/casregistry"
)

var (
	flagBin  string
	flagPath string
	flagPin  bool
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repo via the ipfs CLI (offline)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", "ipfs", "ipfs binary (for --backend=ipfs)")
			fs.StringVar(&flagPath, "ipfs-path", "", "IPFS_PATH override (for --backend=ipfs)")
			fs.BoolVar(&flagPin, "ipfs-pin", false, "pin stored blocks (for --backend=ipfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return New(Options{Bin: flagBin, RepoPath: flagPath, Pin: flagPin}), nil, nil
		},
		OpenConfig: func(cfg casregistry.Config) (storage.CAS, func() error, error) {
			opts := Options{Bin: cfg["ipfs-bin"], RepoPath: cfg["ipfs-path"]}
			if s := cfg["ipfs-pin"]; s != "" {
				pin, err := strconv.ParseBool(s)
				if err != nil {
					return nil, nil, err
				}
				opts.Pin = pin
			}
			return New(opts), nil, nil
		},
	})
}
