// Command udigest-casd serves a registry-selected CAS over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/casconfig"
	"xdao.co/udigest/storage/casregistry"
	"xdao.co/udigest/storage/grpccas"

	_ "xdao.co/udigest/storage/ipfs"
	_ "xdao.co/udigest/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	listen       string
	backend      string
	casConfig    string
	logLevel     string
	logJSON      bool
	maxMsgBytes  int
	listBackends bool
}

func parseFlags(args []string, errOut io.Writer) (config, error) {
	var c config
	fs := flag.NewFlagSet("udigest-casd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.listen, "listen", "127.0.0.1:7777", "listen address")
	fs.StringVar(&c.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&c.casConfig, "cas-config", "", "CAS config file (JSON or YAML); overrides --backend")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&c.logJSON, "log-json", false, "log as JSON")
	fs.IntVar(&c.maxMsgBytes, "max-msg-bytes", 0, "max gRPC message size in bytes; 0 uses grpc defaults")
	fs.BoolVar(&c.listBackends, "list-backends", false, "list supported backends and exit")
	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)
	return c, fs.Parse(args)
}

func newLogger(w io.Writer, c config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	if c.logJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}

func openCAS(c config, log logrus.FieldLogger) (storage.CAS, func() error, error) {
	if c.casConfig != "" {
		cfg, err := casconfig.LoadFile(c.casConfig)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(casregistry.UsageDaemon, casconfig.Options{Log: log})
	}
	cas, closeFn, err := casregistry.Open(c.backend, casregistry.UsageDaemon)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return storage.Logged{CAS: cas, Log: log, Backend: c.backend}, closeFn, nil
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	c, err := parseFlags(args, errOut)
	if err != nil {
		return 2
	}
	if c.listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	log, err := newLogger(errOut, c)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --log-level: %v\n", err)
		return 2
	}

	cas, closeFn, err := openCAS(c, log)
	if err != nil {
		log.WithError(err).WithField("backend", c.backend).Error("open backend")
		return 2
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("close backend")
		}
	}()

	lis, err := net.Listen("tcp", c.listen)
	if err != nil {
		log.WithError(err).WithField("listen", c.listen).Error("listen")
		return 1
	}
	return serve(ctx, lis, cas, c, log)
}

func serve(ctx context.Context, lis net.Listener, cas storage.CAS, c config, log *logrus.Logger) int {
	opts := []grpc.ServerOption{grpc.UnaryInterceptor(grpccas.LoggingInterceptor(log))}
	if c.maxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(c.maxMsgBytes), grpc.MaxSendMsgSize(c.maxMsgBytes))
	}
	s := grpc.NewServer(opts...)
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		s.GracefulStop()
	}()

	log.WithFields(logrus.Fields{"listen": lis.Addr().String(), "backend": c.backend}).Info("udigest-casd listening")
	if err := s.Serve(lis); err != nil {
		log.WithError(err).Error("serve")
		return 1
	}
	return 0
}
