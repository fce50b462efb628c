package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsomenet/winsome/client"
	"github.com/winsomenet/winsome/store"
	"github.com/winsomenet/winsome/wire"
)

func startChannel(t *testing.T) (string, *store.Store) {
	t.Helper()
	s := store.New()
	sc := NewSideChannel(s)
	s.SetNotifier(sc)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sc.Serve(ctx, "127.0.0.1:0")
	for i := 0; i < 200; i++ {
		if sc.Addr() != "" {
			return sc.Addr(), s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("side channel did not start listening")
	return "", nil
}

func TestRegisterThroughChannel(t *testing.T) {
	addr, s := startChannel(t)

	require.NoError(t, client.Register(addr, "alice", "aaaa", []string{"Go", "jazz"}))
	assert.True(t, s.Exists("alice"))

	// duplicate, case-insensitively
	err := client.Register(addr, "ALICE", "bbbb", []string{"go"})
	require.Error(t, err)

	// validation errors surface as the reply error string
	err = client.Register(addr, "bob", "cccc", nil)
	require.Error(t, err)
}

func TestAttachRequiresAccount(t *testing.T) {
	addr, _ := startChannel(t)

	_, err := client.Attach(addr, "ghost")
	require.Error(t, err)
}

func TestFollowEventPushed(t *testing.T) {
	addr, s := startChannel(t)
	require.NoError(t, s.Register("alice", "aaaa", []string{"go"}))
	require.NoError(t, s.Register("bob", "bbbb", []string{"go"}))

	l, err := client.Attach(addr, "bob")
	require.NoError(t, err)
	defer l.Close()

	// follow events are pushed only while the target is logged in
	require.Equal(t, wire.Success, s.Login("bob", "bbbb", 1))
	require.Equal(t, wire.Success, s.Follow("alice", "bob"))

	n := next(t, l)
	assert.Equal(t, string(store.EventFollow), n.Event)
	assert.Equal(t, "alice", n.Actor)

	require.Equal(t, wire.Success, s.Unfollow("alice", "bob"))
	n = next(t, l)
	assert.Equal(t, string(store.EventUnfollow), n.Event)
	assert.Equal(t, "alice", n.Actor)
}

func next(t *testing.T, l *client.Listener) client.Notification {
	t.Helper()
	type result struct {
		n   client.Notification
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := l.Next()
		ch <- result{n, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification arrived")
		return client.Notification{}
	}
}

func TestDeadEndpointDropped(t *testing.T) {
	addr, s := startChannel(t)
	require.NoError(t, s.Register("alice", "aaaa", []string{"go"}))
	require.NoError(t, s.Register("bob", "bbbb", []string{"go"}))

	l, err := client.Attach(addr, "bob")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// delivery into a closed endpoint must not block or crash the store path
	require.Equal(t, wire.Success, s.Login("bob", "bbbb", 1))
	require.Equal(t, wire.Success, s.Follow("alice", "bob"))
}
