package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsomenet/winsome/wire"
)

func TestCommentRules(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "chess")
	postID, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)

	_, code = s.CreateComment("alice", postID, "")
	assert.Equal(t, wire.InvalidParameters, code)
	_, code = s.CreateComment("bob", postID, "own post")
	assert.Equal(t, wire.UserSelfComment, code)
	_, code = s.CreateComment("carol", postID, "not following")
	assert.Equal(t, wire.PostNotInFeed, code)
	_, code = s.CreateComment("alice", 999, "gone")
	assert.Equal(t, wire.EntityNotExists, code)

	// no per-user limit: several comments on one post are fine
	first, code := s.CreateComment("alice", postID, "one")
	require.Equal(t, wire.Success, code)
	second, code := s.CreateComment("alice", postID, "two")
	require.Equal(t, wire.Success, code)
	assert.Greater(t, second, first)

	view, code := s.ShowPost("bob", postID)
	require.Equal(t, wire.Success, code)
	require.Len(t, view.Comments, 2)
	assert.Equal(t, "one", view.Comments[0].Content)
}

func TestVoteOncePerPost(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "chess")
	postID, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)

	assert.Equal(t, wire.UserSelfVote, s.RatePost("bob", postID, true))
	assert.Equal(t, wire.PostNotInFeed, s.RatePost("carol", postID, true))
	assert.Equal(t, wire.EntityNotExists, s.RatePost("alice", 999, true))

	require.Equal(t, wire.Success, s.RatePost("alice", postID, true))
	assert.Equal(t, wire.UserAlreadyVoted, s.RatePost("alice", postID, false))

	view, code := s.ShowPost("bob", postID)
	require.Equal(t, wire.Success, code)
	assert.Equal(t, int32(1), view.Upvotes)
	assert.Equal(t, int32(0), view.Downvotes, "the rejected second vote left the stored one unchanged")
}

func TestVoteOncePerComment(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "chess")
	require.Equal(t, wire.Success, s.Follow("carol", "bob"))
	require.Equal(t, wire.Success, s.Follow("bob", "alice"))
	postID, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	commentID, code := s.CreateComment("alice", postID, "nice")
	require.Equal(t, wire.Success, code)

	assert.Equal(t, wire.UserSelfVote, s.RateComment("alice", commentID, true))
	assert.Equal(t, wire.UserNotFollowed, s.RateComment("carol", commentID, true))
	assert.Equal(t, wire.EntityNotExists, s.RateComment("bob", 999, true))

	require.Equal(t, wire.Success, s.RateComment("bob", commentID, false))
	assert.Equal(t, wire.UserAlreadyVoted, s.RateComment("bob", commentID, true))

	view, code := s.ShowPost("bob", postID)
	require.Equal(t, wire.Success, code)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, int32(1), view.Comments[0].Downvotes)
}

func TestWalletStartsEmpty(t *testing.T) {
	s := New()
	seed(t, s, "bob", "chess")
	view, code := s.WalletOf("bob")
	require.Equal(t, wire.Success, code)
	assert.Zero(t, view.Total)
	assert.Empty(t, view.Transactions)

	_, code = s.WalletOf("ghost")
	assert.Equal(t, wire.ClientNotLoggedIn, code)
}
