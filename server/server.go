// server is the connection front of the winsome node: an accept loop
// registering per-connection sessions, each pumped by a lightweight reader
// that leans on the runtime's readiness notifications, with all request
// work funneled through one bounded worker pool.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/winsomenet/winsome/store"
)

type Server struct {
	store     *store.Store
	pool      *Pool
	multicast string // advertised to clients at login for wallet pings

	mu       sync.Mutex
	conns    map[int64]*session
	listener net.Listener
	nextID   atomic.Int64
	pumps    sync.WaitGroup
}

func NewServer(s *store.Store, workers, queueDepth int, multicast string) *Server {
	return &Server{
		store:     s,
		pool:      NewPool(workers, queueDepth),
		multicast: multicast,
		conns:     make(map[int64]*session),
	}
}

// Serve accepts connections until the context ends. One failing connection
// never takes the loop down; only a listener error does.
func (srv *Server) Serve(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	srv.mu.Lock()
	srv.listener = listener
	srv.mu.Unlock()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	slog.Info("serving winsome protocol", "address", listener.Addr().String())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				srv.shutdown()
				return nil
			}
			return err
		}
		s := &session{
			id:   srv.nextID.Add(1),
			conn: conn,
			srv:  srv,
		}
		srv.mu.Lock()
		srv.conns[s.id] = s
		srv.mu.Unlock()
		srv.pumps.Add(1)
		go func() {
			defer srv.pumps.Done()
			s.run()
		}()
	}
}

// Addr returns the bound listener address, for tests that listen on an
// ephemeral port.
func (srv *Server) Addr() string {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return ""
	}
	return srv.listener.Addr().String()
}

func (srv *Server) remove(id int64) {
	srv.mu.Lock()
	delete(srv.conns, id)
	srv.mu.Unlock()
}

func (srv *Server) shutdown() {
	srv.mu.Lock()
	sessions := make([]*session, 0, len(srv.conns))
	for _, s := range srv.conns {
		sessions = append(sessions, s)
	}
	srv.mu.Unlock()
	for _, s := range sessions {
		s.conn.Close()
	}
	// every pump must be out of Submit before the pool closes its queue
	srv.pumps.Wait()
	srv.pool.Stop()
}
