package grpccas

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/localfs"
	"xdao.co/udigest/storage/testkit"
	"xdao.co/udigest/udigest"
)

func serve(t *testing.T, cas storage.CAS, opts ...grpc.ServerOption) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(opts...)
	RegisterCASServer(srv, &Server{CAS: cas})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	client := NewClient(cc)
	client.Timeout = 2 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		cas, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("localfs.New: %v", err)
		}
		return serve(t, cas)
	})
}

func TestGRPCCAS_ValueRoundTrip(t *testing.T) {
	client := serve(t, testkit.NewMemory())

	v := udigest.Inline().Field("hello", udigest.String("grpccas"))
	id, err := storage.PutValue(client, v)
	if err != nil {
		t.Fatalf("PutValue: %v", err)
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(udigest.Encode(v)) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCCAS_ErrorsMapBack(t *testing.T) {
	client := serve(t, testkit.NewMemory())
	missing, err := storage.Sum([]byte("missing"))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if _, err := client.Get(missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(fromStatus(toStatus(storage.ErrImmutable)), storage.ErrImmutable) {
		t.Fatalf("ErrImmutable did not survive the status round trip")
	}
}

func TestLoggingInterceptor(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	client := serve(t, testkit.NewMemory(), grpc.UnaryInterceptor(LoggingInterceptor(logger)))

	id, err := client.Put([]byte("logged"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	client.Has(id)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Data["method"] != methodPut {
		t.Fatalf("unexpected method field %v", entries[0].Data["method"])
	}
	if entries[1].Data["cid"] != id.String() {
		t.Fatalf("expected cid on Has, got %v", entries[1].Data)
	}
}
