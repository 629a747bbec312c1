//go:build linux || darwin || freebsd || netbsd || openbsd || windows

package host

import (
	"context"
	"testing"

	"github.com/ngdevkit/emudbg/internal/debug/emulator"
	"github.com/ngdevkit/emudbg/internal/debug/gdbserver"
)

// spinner never leaves its program counter, like a target in an idle loop.
type spinner struct{ *emulator.Flat }

func (s spinner) Step() uint32 { return s.PC() }

func TestRun_InterruptWhileContinuing(t *testing.T) {
	opts := gdbserver.DefaultOptions
	opts.Addr = freeAddr(t)
	flat, err := emulator.NewFlat(emulator.DefaultFlatConfig)
	if err != nil {
		t.Fatal(err)
	}
	m := spinner{flat}
	s, err := gdbserver.NewSession(m, opts)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(m, s, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	c := dial(t, opts.Addr)
	defer c.conn.Close()
	c.send("c")
	if _, err := c.conn.Write([]byte{0x03}); err != nil {
		t.Fatal(err)
	}
	if got := c.reply(true); got != "S05" {
		t.Fatalf("stop reply after interrupt: got %q", got)
	}
	if got := c.query("?"); got != "S05" {
		t.Fatalf("status after interrupt: got %q", got)
	}
	cancel()
	<-done
}
