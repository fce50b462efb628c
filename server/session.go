package server

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/winsomenet/winsome/wire"
)

// Connection lifecycle. A session moves awaitingRead -> accumulatingFrame
// while bytes of the current frame trickle in, dispatching while a worker
// executes the request, awaitingWrite while the response flushes, and back
// to awaitingRead. closed is terminal, entered on any transport error or an
// explicit logout.
const (
	stateAwaitingRead int32 = iota
	stateAccumulatingFrame
	stateDispatching
	stateAwaitingWrite
	stateClosed
)

var errBadFrame = errors.New("unrecoverable frame boundary")

// session is the per-connection state: the partially assembled inbound
// frame, the reusable outbound frame, and the authenticated user once login
// succeeds. The read pump and the worker never run concurrently for one
// session, so none of this needs its own lock; only state is atomic because
// teardown inspects it.
type session struct {
	id   int64
	conn net.Conn
	srv  *Server

	user    string // authenticated username, empty before login
	closing bool   // set by logout: flush the response, then disconnect

	pending []byte // inbound bytes not yet forming a full frame
	drain   int    // bytes of an oversized frame still to swallow

	in    wire.Frame
	out   wire.Frame
	state atomic.Int32
}

func (s *session) setState(st int32) {
	s.state.Store(st)
}

// run is the connection pump: it takes whatever bytes the socket currently
// has, accumulates frames, and hands each complete frame to the worker
// pool. Reading is re-armed only after the worker finished, so at most one
// request per connection is ever in flight.
func (s *session) run() {
	defer s.teardown()
	buf := make([]byte, 4096)
	for {
		s.setState(stateAwaitingRead)
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.setState(stateAccumulatingFrame)
			if dispatchErr := s.consume(buf[:n]); dispatchErr != nil {
				return
			}
			if s.closing {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				slog.Info("connection read failed", "conn", s.id, "error", err)
			}
			return
		}
	}
}

// consume appends fresh bytes to the inbound buffer and dispatches every
// complete frame found in it. Partial frames stay buffered; the pump simply
// waits for the next read.
func (s *session) consume(data []byte) error {
	if s.drain > 0 {
		if len(data) <= s.drain {
			s.drain -= len(data)
			return nil
		}
		data = data[s.drain:]
		s.drain = 0
	}
	s.pending = append(s.pending, data...)
	for {
		if len(s.pending) < 4 {
			return nil
		}
		length := int(int32(binary.BigEndian.Uint32(s.pending)))
		if length < 4 {
			// The next frame boundary is unknowable; answer and give
			// up on the stream.
			s.respondMalformed()
			return errBadFrame
		}
		if length > wire.MaxFrameSize {
			// Reject the declared length but keep the stream alive:
			// answer, then swallow the announced bytes so the next
			// frame boundary lines up again.
			if err := s.respondMalformed(); err != nil {
				return err
			}
			body := len(s.pending) - 4
			if body >= length {
				s.pending = s.pending[:copy(s.pending, s.pending[4+length:])]
				continue
			}
			s.drain = length - body
			s.pending = s.pending[:0]
			return nil
		}
		if len(s.pending) < 4+length {
			return nil
		}
		frame := make([]byte, length)
		copy(frame, s.pending[4:4+length])
		s.pending = s.pending[:copy(s.pending, s.pending[4+length:])]

		done := make(chan error, 1)
		s.srv.pool.Submit(func() {
			done <- s.dispatch(frame)
		})
		if err := <-done; err != nil {
			return err
		}
		if s.closing {
			return nil
		}
	}
}

func (s *session) respondMalformed() error {
	resp := wire.StatusResponse{Code: wire.InvalidParameters}
	return s.flush(resp.Encode(&s.out, wire.MsgUnknown))
}

// flush writes the sealed response, resuming after short writes until every
// byte is on the wire.
func (s *session) flush(frame []byte) error {
	s.setState(stateAwaitingWrite)
	for len(frame) > 0 {
		n, err := s.conn.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// teardown closes the connection and revokes its login session. It runs
// exactly once, when the pump exits for any reason.
func (s *session) teardown() {
	s.setState(stateClosed)
	if s.user != "" {
		s.srv.store.Logout(s.user, s.id)
		s.user = ""
	}
	s.conn.Close()
	s.srv.remove(s.id)
}
