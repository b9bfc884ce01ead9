package localfs

import (
	"flag"
	"fmt"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/casregistry"
)

var flagDir string

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "localfs-dir", "", "LocalFS CAS directory (for --backend=localfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			if flagDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			cas, err := New(flagDir)
			return cas, nil, err
		},
		OpenConfig: func(cfg casregistry.Config) (storage.CAS, func() error, error) {
			dir, err := cfg.Require("localfs-dir")
			if err != nil {
				return nil, nil, err
			}
			cas, err := New(dir)
			return cas, nil, err
		},
	})
}
