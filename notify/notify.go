// notify is the out-of-band collaborator of the core protocol: account
// registration, per-user push endpoints for follow events, and the UDP
// multicast ping that tells online clients to refresh their wallets. The
// channel speaks newline-delimited JSON so thin clients can use it without
// the binary codec.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/winsomenet/winsome/store"
)

type request struct {
	Op       string   `json:"op"` // "register" or "attach"
	Username string   `json:"username"`
	Hash     string   `json:"hash,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

type push struct {
	Event string `json:"event"`
	Actor string `json:"actor,omitempty"`
}

type endpoint struct {
	id   string
	conn net.Conn
	mu   sync.Mutex
	enc  *json.Encoder
}

// SideChannel accepts registration requests and keeps the registry of
// attached push endpoints. It implements store.Notifier; a failed delivery
// drops the endpoint and nothing else.
type SideChannel struct {
	store *store.Store

	mu        sync.Mutex
	endpoints map[string]*endpoint // lowercase username -> endpoint
	listener  net.Listener
}

func NewSideChannel(s *store.Store) *SideChannel {
	return &SideChannel{
		store:     s,
		endpoints: make(map[string]*endpoint),
	}
}

// Serve accepts side-channel connections until the context ends.
func (sc *SideChannel) Serve(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	sc.mu.Lock()
	sc.listener = listener
	sc.mu.Unlock()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	slog.Info("serving side channel", "address", listener.Addr().String())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go sc.handle(conn)
	}
}

func (sc *SideChannel) Addr() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.listener == nil {
		return ""
	}
	return sc.listener.Addr().String()
}

func (sc *SideChannel) handle(conn net.Conn) {
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	attached := ""
	defer func() {
		if attached != "" {
			sc.detach(attached)
		}
		conn.Close()
	}()
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			return
		}
		switch req.Op {
		case "register":
			if err := sc.store.Register(req.Username, req.Hash, req.Tags); err != nil {
				enc.Encode(reply{Error: err.Error()})
				continue
			}
			enc.Encode(reply{OK: true})
		case "attach":
			if !sc.store.Exists(req.Username) {
				enc.Encode(reply{Error: "unknown username"})
				continue
			}
			ep := &endpoint{id: uuid.NewString(), conn: conn, enc: enc}
			sc.mu.Lock()
			sc.endpoints[strings.ToLower(req.Username)] = ep
			sc.mu.Unlock()
			attached = req.Username
			enc.Encode(reply{OK: true, ID: ep.id})
		default:
			enc.Encode(reply{Error: "unknown op"})
		}
	}
}

func (sc *SideChannel) detach(username string) {
	sc.mu.Lock()
	delete(sc.endpoints, strings.ToLower(username))
	sc.mu.Unlock()
}

// Notify delivers one event to the user's attached endpoint, if any.
// Delivery failure is non-fatal: the dead endpoint is dropped and the event
// lost, which the client repairs on its next attach.
func (sc *SideChannel) Notify(username string, ev store.Event) {
	sc.mu.Lock()
	ep := sc.endpoints[strings.ToLower(username)]
	sc.mu.Unlock()
	if ep == nil {
		return
	}
	ep.mu.Lock()
	err := ep.enc.Encode(push{Event: string(ev.Kind), Actor: ev.Actor})
	ep.mu.Unlock()
	if err != nil {
		slog.Info("dropping dead notification endpoint", "user", username, "endpoint", ep.id, "error", err)
		sc.detach(username)
		ep.conn.Close()
	}
}

// Multicast pings a UDP group when wallets change; clients learn the group
// address from the login response and listen on it.
type Multicast struct {
	conn *net.UDPConn
}

const walletPing = "WALLET_UPDATE"

func NewMulticast(group string) (*Multicast, error) {
	addr, err := net.ResolveUDPAddr("udp", group)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &Multicast{conn: conn}, nil
}

func (m *Multicast) WalletsUpdated() {
	if _, err := m.conn.Write([]byte(walletPing)); err != nil {
		slog.Warn("wallet ping failed", "error", err)
	}
}

func (m *Multicast) Close() {
	m.conn.Close()
}
