package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsomenet/winsome/wire"
)

func TestConcurrentFollowsSameTarget(t *testing.T) {
	const followers = 64
	s := New()
	seed(t, s, "target", "chess")
	for n := 0; n < followers; n++ {
		seed(t, s, fmt.Sprintf("user%02d", n), "chess")
	}
	var wg sync.WaitGroup
	for n := 0; n < followers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			code := s.Follow(fmt.Sprintf("user%02d", n), "target")
			assert.Equal(t, wire.Success, code)
		}(n)
	}
	wg.Wait()

	target := s.user("target")
	target.readScope()
	defer target.readDone()
	assert.Len(t, target.Followers, followers, "no follow may be lost")
}

func TestConcurrentPostIDsUnique(t *testing.T) {
	const writers = 8
	const perWriter = 50
	s := New()
	for n := 0; n < writers; n++ {
		seed(t, s, fmt.Sprintf("writer%d", n), "chess")
	}
	ids := make(chan int32, writers*perWriter)
	var wg sync.WaitGroup
	for n := 0; n < writers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for p := 0; p < perWriter; p++ {
				id, code := s.CreatePost(fmt.Sprintf("writer%d", n), "t", "c")
				if code == wire.Success {
					ids <- id
				}
			}
		}(n)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int32]struct{})
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "post id %d allocated twice", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, writers*perWriter)
}

func TestConcurrentVotesSingleWinnerPerVoter(t *testing.T) {
	const voters = 32
	s := New()
	seed(t, s, "author", "chess")
	for n := 0; n < voters; n++ {
		name := fmt.Sprintf("voter%02d", n)
		seed(t, s, name, "chess")
		require.Equal(t, wire.Success, s.Follow(name, "author"))
	}
	postID, code := s.CreatePost("author", "t", "c")
	require.Equal(t, wire.Success, code)

	var wg sync.WaitGroup
	for n := 0; n < voters; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("voter%02d", n)
			// two racing votes from the same user: exactly one may land
			first := s.RatePost(name, postID, true)
			second := s.RatePost(name, postID, true)
			assert.Equal(t, wire.Success, first)
			assert.Equal(t, wire.UserAlreadyVoted, second)
		}(n)
	}
	wg.Wait()

	view, code := s.ShowPost("author", postID)
	require.Equal(t, wire.Success, code)
	assert.Equal(t, int32(voters), view.Upvotes)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := New()
	pair(t, s)
	postID, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	_, code = s.CreateComment("alice", postID, "nice")
	require.Equal(t, wire.Success, code)
	require.Equal(t, wire.Success, s.RatePost("alice", postID, true))
	require.True(t, s.Credit("bob", 1.25, s.now()))

	restored := New()
	restored.Restore(s.Snapshot())

	assert.True(t, restored.Follows("alice", "bob"))
	view, code := restored.ShowPost("alice", postID)
	require.Equal(t, wire.Success, code)
	assert.Equal(t, int32(1), view.Upvotes, "vote counters rebuilt from the vote table")
	require.Len(t, view.Comments, 1)
	wallet, code := restored.WalletOf("bob")
	require.Equal(t, wire.Success, code)
	assert.Equal(t, 1.25, wallet.Total)
	require.Len(t, wallet.Transactions, 1)

	headers, code := restored.Blog("bob", 0)
	require.Equal(t, wire.Success, code)
	require.Len(t, headers, 1)
	assert.Equal(t, postID, headers[0].ID)
}

func TestConcurrentCommentsDuringDeleteCascade(t *testing.T) {
	// a comment racing the delete cascade either lands before it and is
	// removed with the post, or is refused; no run may strand a comment
	// without its post
	for round := 0; round < 40; round++ {
		s := New()
		pair(t, s)
		postID, code := s.CreatePost("bob", "t", "c")
		require.Equal(t, wire.Success, code)

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			for n := 0; n < 20; n++ {
				_, code := s.CreateComment("alice", postID, "racing")
				if code == wire.EntityNotExists {
					return
				}
				assert.Equal(t, wire.Success, code)
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			assert.Equal(t, wire.Success, s.DeletePost("bob", postID))
		}()
		close(start)
		wg.Wait()

		s.commentsMu.RLock()
		orphans := len(s.comments)
		s.commentsMu.RUnlock()
		assert.Zero(t, orphans, "round %d left comments behind the cascade", round)
	}
}
