// client is the programmatic face of the winsome binary protocol: one
// blocking round trip per call over a single connection, reusing two frames
// for encode and decode.
package client

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/winsomenet/winsome/wire"
)

var ErrWrongResponse = errors.New("response type does not match request")

type Client struct {
	conn net.Conn
	out  wire.Frame
	in   wire.Frame
	body []byte
}

func Dial(address string) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// HashPassword is the client-side hashing applied before a password ever
// leaves the machine; the server stores and compares the hex digest.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// roundTrip sends one sealed frame and loads the paired response into the
// inbound frame, cursor past the type field.
func (c *Client) roundTrip(frame []byte, want wire.MsgType) error {
	if _, err := c.conn.Write(frame); err != nil {
		return err
	}
	var prefix [4]byte
	if _, err := io.ReadFull(c.conn, prefix[:]); err != nil {
		return err
	}
	length := int(int32(binary.BigEndian.Uint32(prefix[:])))
	if length > wire.MaxFrameSize {
		return fmt.Errorf("response declares %d bytes: %w", length, wire.ErrFrameTooLarge)
	}
	if length < 4 {
		return fmt.Errorf("bad response length %d", length)
	}
	if cap(c.body) < length {
		c.body = make([]byte, length)
	}
	c.body = c.body[:length]
	if _, err := io.ReadFull(c.conn, c.body); err != nil {
		return err
	}
	c.in.Load(c.body)
	t, err := c.in.ReadInt32()
	if err != nil {
		return err
	}
	got := wire.MsgType(t)
	if got != want.Response() && got != wire.MsgUnknown.Response() {
		return ErrWrongResponse
	}
	return nil
}

func (c *Client) Login(username, hash string) (wire.LoginResponse, error) {
	req := wire.LoginRequest{Username: username, Hash: hash}
	if err := c.roundTrip(req.Encode(&c.out), wire.MsgLogin); err != nil {
		return wire.LoginResponse{}, err
	}
	return wire.DecodeLoginResponse(&c.in)
}

func (c *Client) status(t wire.MsgType, frame []byte) (wire.Code, error) {
	if err := c.roundTrip(frame, t); err != nil {
		return 0, err
	}
	resp, err := wire.DecodeStatusResponse(&c.in)
	return resp.Code, err
}

func (c *Client) Logout() (wire.Code, error) {
	return c.status(wire.MsgLogout, wire.EncodeEmptyRequest(&c.out, wire.MsgLogout))
}

func (c *Client) Follow(target string) (wire.Code, error) {
	req := wire.TargetRequest{Target: target}
	return c.status(wire.MsgFollow, req.Encode(&c.out, wire.MsgFollow))
}

func (c *Client) Unfollow(target string) (wire.Code, error) {
	req := wire.TargetRequest{Target: target}
	return c.status(wire.MsgUnfollow, req.Encode(&c.out, wire.MsgUnfollow))
}

func (c *Client) ListUsers() (wire.UsersResponse, error) {
	if err := c.roundTrip(wire.EncodeEmptyRequest(&c.out, wire.MsgListUsers), wire.MsgListUsers); err != nil {
		return wire.UsersResponse{}, err
	}
	return wire.DecodeUsersResponse(&c.in)
}

func (c *Client) CreatePost(title, content string) (wire.IDResponse, error) {
	req := wire.CreatePostRequest{Title: title, Content: content}
	if err := c.roundTrip(req.Encode(&c.out), wire.MsgCreatePost); err != nil {
		return wire.IDResponse{}, err
	}
	return wire.DecodeIDResponse(&c.in)
}

func (c *Client) DeletePost(id int32) (wire.Code, error) {
	req := wire.PostRequest{ID: id}
	return c.status(wire.MsgDeletePost, req.Encode(&c.out, wire.MsgDeletePost))
}

func (c *Client) ShowPost(id int32) (wire.PostResponse, error) {
	req := wire.PostRequest{ID: id}
	if err := c.roundTrip(req.Encode(&c.out, wire.MsgShowPost), wire.MsgShowPost); err != nil {
		return wire.PostResponse{}, err
	}
	return wire.DecodePostResponse(&c.in)
}

func (c *Client) ShowFeed(page int32) (wire.PostListResponse, error) {
	req := wire.PageRequest{Page: page}
	if err := c.roundTrip(req.Encode(&c.out, wire.MsgShowFeed), wire.MsgShowFeed); err != nil {
		return wire.PostListResponse{}, err
	}
	return wire.DecodePostListResponse(&c.in)
}

func (c *Client) ViewBlog(page int32) (wire.PostListResponse, error) {
	req := wire.PageRequest{Page: page}
	if err := c.roundTrip(req.Encode(&c.out, wire.MsgViewBlog), wire.MsgViewBlog); err != nil {
		return wire.PostListResponse{}, err
	}
	return wire.DecodePostListResponse(&c.in)
}

func (c *Client) RewinPost(id int32) (wire.IDResponse, error) {
	req := wire.PostRequest{ID: id}
	if err := c.roundTrip(req.Encode(&c.out, wire.MsgRewinPost), wire.MsgRewinPost); err != nil {
		return wire.IDResponse{}, err
	}
	return wire.DecodeIDResponse(&c.in)
}

func (c *Client) RatePost(id int32, up bool) (wire.Code, error) {
	req := wire.RateRequest{ID: id, Up: up}
	return c.status(wire.MsgRatePost, req.Encode(&c.out, wire.MsgRatePost))
}

func (c *Client) RateComment(id int32, up bool) (wire.Code, error) {
	req := wire.RateRequest{ID: id, Up: up}
	return c.status(wire.MsgRateComment, req.Encode(&c.out, wire.MsgRateComment))
}

func (c *Client) CreateComment(postID int32, content string) (wire.IDResponse, error) {
	req := wire.CreateCommentRequest{PostID: postID, Content: content}
	if err := c.roundTrip(req.Encode(&c.out), wire.MsgCreateComment); err != nil {
		return wire.IDResponse{}, err
	}
	return wire.DecodeIDResponse(&c.in)
}

func (c *Client) Wallet() (wire.WalletResponse, error) {
	if err := c.roundTrip(wire.EncodeEmptyRequest(&c.out, wire.MsgWallet), wire.MsgWallet); err != nil {
		return wire.WalletResponse{}, err
	}
	return wire.DecodeWalletResponse(&c.in)
}
