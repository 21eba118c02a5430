package transport

import (
	"bytes"
	"errors"
	"net"
	"path/filepath"
	"testing"
)

func TestChannelConnRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	raiser := NewChannelConn(client)
	handler := NewChannelConn(server)

	payload := []byte{0xA1, 0x01, 0x19, 0x09, 0x61}

	errCh := make(chan error, 1)
	go func() {
		errCh <- raiser.Send(payload)
	}()

	got, err := handler.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %v, want %v", got, payload)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestChannelConnID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	a := NewChannelConn(client)
	b := NewChannelConn(server)

	if a.ChannelID() == "" {
		t.Error("ChannelID is empty")
	}
	if a.ChannelID() == b.ChannelID() {
		t.Error("two connections share a channel ID")
	}
}

func TestChannelListenerAcceptAndDial(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "crashlink.sock")

	listener, err := ListenChannel(sockPath)
	if err != nil {
		t.Fatalf("ListenChannel failed: %v", err)
	}
	defer listener.Close()

	type acceptResult struct {
		conn *ChannelConn
		err  error
	}
	acceptCh := make(chan acceptResult, 1)
	go func() {
		conn, err := listener.Accept()
		acceptCh <- acceptResult{conn, err}
	}()

	raiser, err := DialChannel(sockPath)
	if err != nil {
		t.Fatalf("DialChannel failed: %v", err)
	}
	defer raiser.Close()

	res := <-acceptCh
	if res.err != nil {
		t.Fatalf("Accept failed: %v", res.err)
	}
	handler := res.conn
	defer handler.Close()

	payload := []byte("exception raised")
	if err := raiser.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := handler.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %q, want %q", got, payload)
	}

	// Reply in the other direction over the same connection.
	reply := []byte("handled")
	if err := handler.Send(reply); err != nil {
		t.Fatalf("reply Send failed: %v", err)
	}
	got, err = raiser.Receive()
	if err != nil {
		t.Fatalf("reply Receive failed: %v", err)
	}
	if !bytes.Equal(got, reply) {
		t.Errorf("reply mismatch: got %q, want %q", got, reply)
	}
}

func TestDialChannelNoListener(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "missing.sock")

	_, err := DialChannel(sockPath)
	if err == nil {
		t.Fatal("expected error dialing missing socket")
	}
}

func TestChannelConnLogsFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	raiser := NewChannelConn(client)
	handler := NewChannelConn(server)

	logger := &capturingLogger{}
	raiser.SetLogger(logger)

	payload := []byte("logged")

	go func() {
		handler.Receive() //nolint:errcheck
	}()

	if err := raiser.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ChannelID != raiser.ChannelID() {
		t.Errorf("ChannelID = %q, want %q", events[0].ChannelID, raiser.ChannelID())
	}
}

func TestPipeRoundTrip(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	payload := []byte{0x01, 0x02, 0x03}
	if err := a.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := b.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %v, want %v", got, payload)
	}

	// The other direction works too.
	if err := b.Send([]byte("back")); err != nil {
		t.Fatalf("reverse Send failed: %v", err)
	}
	got, err = a.Receive()
	if err != nil {
		t.Fatalf("reverse Receive failed: %v", err)
	}
	if string(got) != "back" {
		t.Errorf("reverse payload = %q, want %q", got, "back")
	}
}

func TestPipeSendCopiesData(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	payload := []byte("original")
	if err := a.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Mutating the caller's buffer must not affect the message in flight.
	copy(payload, "mutated!")

	got, err := b.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("payload = %q, want %q", got, "original")
	}
}

func TestPipeClose(t *testing.T) {
	a, b := Pipe()

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := a.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := b.Send([]byte("x")); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Send after close = %v, want ErrPipeClosed", err)
	}
	if _, err := b.Receive(); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Receive after close = %v, want ErrPipeClosed", err)
	}
}
