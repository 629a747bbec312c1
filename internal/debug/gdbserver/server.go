// Package gdbserver implements the subset of the GDB Remote Serial Protocol
// needed to debug an emulated target: one TCP client, one fake thread,
// byte-level memory, 32-bit registers and software breakpoints.
//
// The server is synchronous. The target runtime calls ServerLoop each time
// the target is suspended; the loop exchanges packets with the client until
// a resume action is requested, then returns with that action recorded.
// There is no read timeout: a peer that vanishes without closing the
// connection blocks ServerLoop indefinitely.
package gdbserver

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/ngdevkit/emudbg/internal/debug/emulator"
	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// DefaultAddr is where WaitForClient listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:2159"

// DefaultMaxMemoryRead is the number of bytes a single m packet returns at most.
const DefaultMaxMemoryRead = 4

// maxRetransmit bounds how often a NACKed reply is sent again.
const maxRetransmit = 3

// Logger receives protocol traces.
type Logger interface {
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

// Options configures a Session.
type Options struct {
	// Addr is the TCP host:port to listen on.
	Addr string
	// ValidateChecksum NACKs inbound packets whose checksum does not match
	// instead of dispatching them.
	ValidateChecksum bool
	// MaxMemoryRead caps the byte count of one memory read reply.
	MaxMemoryRead int
	// Logger defaults to discarding everything.
	Logger Logger
}

// DefaultOptions reproduces the historical server behaviour.
var DefaultOptions = Options{
	Addr:          DefaultAddr,
	MaxMemoryRead: DefaultMaxMemoryRead,
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.MaxMemoryRead == 0 {
		o.MaxMemoryRead = DefaultMaxMemoryRead
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	return o
}

// MaxMemoryReadLimit is the largest cap whose hex reply still fits the send buffer.
const MaxMemoryReadLimit = (BufferSize - framingLen) / 2

func (o Options) validate() error {
	if o.MaxMemoryRead < 1 || o.MaxMemoryRead > MaxMemoryReadLimit {
		return emuerrors.InvalidConfig("max_memory_read", o.MaxMemoryRead, "must be between 1 and 510")
	}
	if _, _, err := net.SplitHostPort(o.Addr); err != nil {
		return emuerrors.InvalidConfig("addr", o.Addr, err.Error())
	}
	return nil
}

// Session holds the network and protocol state for one debugger client.
// A Session must only be used from one goroutine.
type Session struct {
	target emulator.Target
	opts   Options
	log    Logger

	listener net.Listener
	conn     net.Conn
	// stops the watcher that closes conn when the accepting context ends
	release func() bool

	recv [BufferSize]byte
	send [BufferSize]byte

	// payload of the packet being dispatched, as offsets into recv
	pktStart, pktEnd int

	// caller-owned, only set while a command is dispatched
	next *RunCommand
}

// NewSession binds a fresh session to target. Targets that describe their
// API revision must be compatible with this server.
func NewSession(target emulator.Target, opts Options) (*Session, error) {
	if target == nil {
		return nil, emuerrors.InvalidConfig("target", nil, "an emulator target is required")
	}
	if err := emulator.CheckTarget(target); err != nil {
		return nil, err
	}
	s := &Session{target: target}
	if err := s.SetOptions(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// SetOptions replaces the session options. A new Addr is used by the next
// WaitForClient.
func (s *Session) SetOptions(opts Options) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}
	s.opts = opts
	s.log = opts.Logger
	return nil
}

// Options returns the options in effect.
func (s *Session) Options() Options { return s.opts }

// Addr returns the listening address, or nil before WaitForClient.
func (s *Session) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Connected reports whether a client is attached.
func (s *Session) Connected() bool { return s.conn != nil }

// WaitForClient listens on the configured address and blocks until one
// debugger connects. Any previous client and listener are closed first.
// Cancelling ctx abandons the wait, and later closes the accepted connection
// so that a blocked ServerLoop returns.
func (s *Session) WaitForClient(ctx context.Context) error {
	s.closeAll()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return emuerrors.Transport("listen on "+s.opts.Addr, err)
	}
	s.listener = ln
	s.log.Info("waiting for debugger on %s", ln.Addr())

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return emuerrors.Transport("accept", err)
	}
	s.Attach(conn)
	s.release = context.AfterFunc(ctx, func() { _ = conn.Close() })
	return nil
}

// Attach makes conn the session's client, closing any previous one.
func (s *Session) Attach(conn net.Conn) {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn = conn
	s.log.Info("debugger connected from %s", conn.RemoteAddr())
}

// HasPendingInput reports, without blocking, whether the client has sent
// bytes that have not been read yet. Runtimes poll it while the target runs
// to notice interrupt requests.
func (s *Session) HasPendingInput() bool {
	if s.conn == nil {
		return false
	}
	n, ok := bytesAvailable(s.conn)
	if ok && n > 0 {
		s.log.Debug("bytes avail: %d", n)
	}
	return ok && n > 0
}

// Disconnect closes the client connection and the listener.
func (s *Session) Disconnect() error {
	err := s.closeAll()
	s.pktStart, s.pktEnd = 0, 0
	return err
}

func (s *Session) closeAll() error {
	var errs []error
	if s.release != nil {
		s.release()
		s.release = nil
	}
	// the listener goes first so a client seeing EOF cannot reach it
	if s.listener != nil {
		errs = append(errs, s.listener.Close())
		s.listener = nil
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	return errors.Join(errs...)
}

// ServerLoop exchanges packets with the client until it asks the target to
// resume. When suspended is set, the client is first told the target stopped
// with SIGTRAP. It returns nil once next holds the resume action, or a
// transport error when the connection fails; the runtime should Disconnect
// in that case.
func (s *Session) ServerLoop(suspended bool, next *RunCommand) error {
	if s.conn == nil {
		return emuerrors.NoClient("server loop")
	}
	if next == nil {
		next = &RunCommand{}
	}

	// the client's ack for this notification arrives ahead of its next
	// packet and is skipped there
	if suspended {
		pkt := AppendPacket(s.send[:0], stopReply)
		s.log.Debug("send %q", pkt)
		if err := s.write(pkt); err != nil {
			return err
		}
	}

	for {
		n, err := s.conn.Read(s.recv[:])
		if n == 0 {
			if err == nil {
				continue
			}
			if errors.Is(err, io.EOF) {
				return emuerrors.ClientDisconnected("recv")
			}
			return emuerrors.Transport("recv", err)
		}
		s.log.Debug("recv %q", s.recv[:n])

		// an interrupt or an ack on its own means there is nothing to do
		pos := skipPreamble(s.recv[:n])
		if pos == n {
			continue
		}

		start, end, err := frameBounds(s.recv[pos:n])
		if err == nil && s.opts.ValidateChecksum {
			err = verifyChecksum(s.recv[pos:n], start, end)
		}
		if err != nil {
			s.log.Debug("rejecting packet: %v", err)
			if err := s.write([]byte{nackByte}); err != nil {
				return err
			}
			continue
		}
		if err := s.write([]byte{ackByte}); err != nil {
			return err
		}

		s.pktStart, s.pktEnd = pos+start, pos+end
		res := s.Dispatch(string(s.recv[s.pktStart:s.pktEnd]), next)

		switch res.Kind {
		case ResultResume:
			s.log.Debug("resume: %s", next)
			return nil
		case ResultAck:
			if err := s.write([]byte{ackByte}); err != nil {
				return err
			}
		case ResultReply:
			if err := s.sendPacket(res.Payload); err != nil {
				return err
			}
			if res.Resume {
				s.log.Debug("resume: %s", next)
				return nil
			}
		}
	}
}

// sendPacket frames payload into the send buffer, sends it and consumes the
// client acknowledgement, sending again on NACK.
func (s *Session) sendPacket(payload string) error {
	if len(payload)+framingLen > len(s.send) {
		return emuerrors.MalformedPacket("reply exceeds send buffer", len(payload)+framingLen)
	}
	pkt := AppendPacket(s.send[:0], payload)
	for attempt := 0; ; attempt++ {
		s.log.Debug("send %q", pkt)
		if err := s.write(pkt); err != nil {
			return err
		}
		ack, err := s.readAck()
		if err != nil {
			return err
		}
		if ack != nackByte || attempt == maxRetransmit {
			return nil
		}
	}
}

// readAck reads exactly one byte.
func (s *Session) readAck() (byte, error) {
	if _, err := io.ReadFull(s.conn, s.recv[:1]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, emuerrors.ClientDisconnected("ack")
		}
		return 0, emuerrors.Transport("ack", err)
	}
	if s.recv[0] != ackByte {
		s.log.Debug("unexpected acknowledgment %q", s.recv[0])
	}
	return s.recv[0], nil
}

func (s *Session) write(b []byte) error {
	if _, err := s.conn.Write(b); err != nil {
		return emuerrors.Transport("send", err)
	}
	return nil
}
