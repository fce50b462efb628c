package client

import (
	"encoding/json"
	"errors"
	"net"
)

// The side channel speaks newline-delimited JSON; see the notify package
// for the server half.

type sideRequest struct {
	Op       string   `json:"op"`
	Username string   `json:"username"`
	Hash     string   `json:"hash,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type sideReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

// Notification is one push event received on an attached side channel.
type Notification struct {
	Event string `json:"event"`
	Actor string `json:"actor,omitempty"`
}

// Register creates an account through the side channel and closes the
// connection.
func Register(address, username, hash string, tags []string) error {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(sideRequest{Op: "register", Username: username, Hash: hash, Tags: tags}); err != nil {
		return err
	}
	var reply sideReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return err
	}
	if !reply.OK {
		return errors.New(reply.Error)
	}
	return nil
}

// Listener is an attached push endpoint delivering follow events.
type Listener struct {
	conn net.Conn
	dec  *json.Decoder
}

// Attach binds a push endpoint for the user and keeps the connection open
// for Next calls.
func Attach(address, username string) (*Listener, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(conn).Encode(sideRequest{Op: "attach", Username: username}); err != nil {
		conn.Close()
		return nil, err
	}
	var reply sideReply
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&reply); err != nil {
		conn.Close()
		return nil, err
	}
	if !reply.OK {
		conn.Close()
		return nil, errors.New(reply.Error)
	}
	return &Listener{conn: conn, dec: dec}, nil
}

// Next blocks for the next pushed notification.
func (l *Listener) Next() (Notification, error) {
	var n Notification
	err := l.dec.Decode(&n)
	return n, err
}

func (l *Listener) Close() error {
	return l.conn.Close()
}
