package bootstrap

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestWorkerRuntimeDoesNotBindServicePorts(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port
	t.Setenv("GRPC_PORT", strconv.Itoa(port))
	t.Setenv("HTTP_PORT", strconv.Itoa(port))

	rt, err := NewRuntime(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("runtime must build while the api holds its ports: %v", err)
	}
	err = rt.RunWorker(context.Background())
	if err == nil || !strings.Contains(err.Error(), ViewTrackingKafka) {
		t.Fatalf("expected the view tracking mode error, got %v", err)
	}
}
