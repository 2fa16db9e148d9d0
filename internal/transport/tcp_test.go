package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPDialerConnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	dialer := TCPDialer{Address: ln.Addr().String(), Timeout: time.Second}
	transport, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer transport.Close()

	select {
	case c := <-accepted:
		defer c.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
	}

	if _, err := transport.Write([]byte("AT\r\n")); err != nil {
		t.Errorf("Write() failed: %v", err)
	}
}

func TestTCPDialerRequiresAddress(t *testing.T) {
	dialer := TCPDialer{}
	if _, err := dialer.Dial(context.Background()); err == nil {
		t.Error("expected an error dialing with no address")
	}
}
