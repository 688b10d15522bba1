package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ilievs/splitwise/internal/ledger"
	"github.com/ilievs/splitwise/internal/storage/jsonl"
)

// startTestServer runs a server over a fresh JSONL store on an ephemeral
// port and returns its address plus the store path.
func startTestServer(t *testing.T) (addr, storePath string, cancel context.CancelFunc, done chan error) {
	t.Helper()

	storePath = filepath.Join(t.TempDir(), "users.jsonl")
	store, err := jsonl.New(storePath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	svc, err := ledger.New(context.Background(), store)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv := New(Config{Host: "localhost", Port: 0, BufferSize: 1024}, svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start listening")
	}

	return srv.Addr(), storePath, cancel, done
}

// send writes one command and reads back one response line.
func send(t *testing.T, conn net.Conn, r *bufio.Reader, command string) string {
	t.Helper()

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		t.Fatalf("write %q failed: %v", command, err)
	}
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read response to %q failed: %v", command, err)
	}
	return strings.TrimRight(line, "\n")
}

func TestServerEndToEnd(t *testing.T) {
	addr, storePath, cancel, done := startTestServer(t)
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	if got := send(t, conn, reader, "signup alicesmith password123"); got != "successful registration" {
		t.Fatalf("signup = %q", got)
	}
	if got := send(t, conn, reader, "signup bobmartins password123"); got != "successful registration" {
		t.Fatalf("signup = %q", got)
	}
	if got := send(t, conn, reader, "signup alicesmith password123"); got != "username already exists" {
		t.Errorf("duplicate signup = %q", got)
	}

	if got := send(t, conn, reader, "add-friend bobmartins alicesmith"); !strings.Contains(got, "successfully added") {
		t.Fatalf("add-friend = %q", got)
	}
	if got := send(t, conn, reader, "split alicesmith bobmartins 100 bills"); got != "You successfully split the bill!" {
		t.Fatalf("split = %q", got)
	}
	if got := send(t, conn, reader, "payed bobmartins 50 alicesmith"); !strings.Contains(got, "successfully noted the payment") {
		t.Errorf("payed = %q", got)
	}
	if got := send(t, conn, reader, "no-such-command at all"); got != "[ Unknown command ]" {
		t.Errorf("unknown command = %q", got)
	}

	// disconnect persists the ledger and closes this connection without
	// a response.
	if _, err := conn.Write([]byte("disconnect\n")); err != nil {
		t.Fatalf("write disconnect failed: %v", err)
	}
	if _, err := reader.ReadString('\n'); err == nil {
		t.Error("expected connection to close after disconnect")
	}

	waitForFile(t, storePath)
	raw, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("reading persisted store failed: %v", err)
	}
	for _, username := range []string{"alicesmith", "bobmartins"} {
		if !strings.Contains(string(raw), username) {
			t.Errorf("persisted store missing %s", username)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error on clean shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down")
	}
}

func TestServerMultipleClients(t *testing.T) {
	addr, _, cancel, done := startTestServer(t)
	defer cancel()

	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer first.Close()
	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer second.Close()

	firstReader := bufio.NewReader(first)
	secondReader := bufio.NewReader(second)

	if got := send(t, first, firstReader, "signup alicesmith password123"); got != "successful registration" {
		t.Fatalf("signup from first client = %q", got)
	}
	// The second client sees state written through the first one.
	if got := send(t, second, secondReader, "signup alicesmith password123"); got != "username already exists" {
		t.Errorf("signup from second client = %q", got)
	}

	// Dropping a connection mid-session must not affect the other one.
	first.Close()
	if got := send(t, second, secondReader, "signup bobmartins password123"); got != "successful registration" {
		t.Errorf("signup after peer disconnect = %q", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down")
	}
}

func TestServerListenerFailurePersistsAndReturns(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "users.jsonl")
	store, err := jsonl.New(storePath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	svc, err := ledger.New(context.Background(), store)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Register("alicesmith", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	srv := New(Config{Host: "localhost", Port: 0, BufferSize: 1024}, svc, nil)

	// The context stays live for the whole test; only the listener dies.
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}

	srv.lis.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run returned nil after the listener failed")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}

	// The ledger must be flushed even on the failure path.
	raw, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("reading persisted store failed: %v", err)
	}
	if !strings.Contains(string(raw), "alicesmith") {
		t.Errorf("persisted store missing alicesmith after listener failure")
	}
}

// waitForFile polls for the persisted store to appear; the disconnect
// flush happens on the dispatch goroutine.
func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("persisted store %q never appeared", path)
}
