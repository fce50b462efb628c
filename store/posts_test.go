package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsomenet/winsome/wire"
)

func pair(t *testing.T, s *Store) {
	t.Helper()
	seed(t, s, "alice", "chess")
	seed(t, s, "bob", "chess", "music")
	require.Equal(t, wire.Success, s.Follow("alice", "bob"))
}

func TestCreatePostValidation(t *testing.T) {
	s := New()
	seed(t, s, "bob", "chess")
	_, code := s.CreatePost("bob", "", "content")
	assert.Equal(t, wire.InvalidParameters, code)
	_, code = s.CreatePost("bob", "title", "")
	assert.Equal(t, wire.InvalidParameters, code)
	_, code = s.CreatePost("ghost", "title", "content")
	assert.Equal(t, wire.ClientNotLoggedIn, code)
	id, code := s.CreatePost("bob", "title", "content")
	assert.Equal(t, wire.Success, code)
	assert.Equal(t, int32(1), id)
}

func TestPostIDsMonotonic(t *testing.T) {
	s := New()
	seed(t, s, "bob", "chess")
	last := int32(0)
	for n := 0; n < 20; n++ {
		id, code := s.CreatePost("bob", "t", fmt.Sprintf("content %d", n))
		require.Equal(t, wire.Success, code)
		require.Greater(t, id, last)
		last = id
	}
}

func TestIDAllocationSkipsRestoredIDs(t *testing.T) {
	s := New()
	s.Restore(State{
		Users: []UserState{{Name: "bob", Hash: "hash-bob", Tags: []string{"chess"}, Blog: []int32{5}}},
		Posts: []PostState{{ID: 5, Author: "bob", Title: "old", Content: "old"}},
	})
	id, code := s.CreatePost("bob", "new", "new")
	require.Equal(t, wire.Success, code)
	assert.Equal(t, int32(6), id, "allocation resumes past the highest persisted id")
}

func TestRewinCollapsesToRoot(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "chess")
	require.Equal(t, wire.Success, s.Follow("carol", "bob"))

	original, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	first, code := s.Rewin("alice", original)
	require.Equal(t, wire.Success, code)

	// rewinning the rewin must reference the root post, not the rewin
	second, code := s.Rewin("carol", first)
	require.Equal(t, wire.Success, code)
	view, code := s.ShowPost("carol", second)
	require.Equal(t, wire.Success, code)
	assert.Equal(t, original, view.Original)
	assert.Equal(t, "bob", view.OriginalAuthor)
	assert.Equal(t, "hello", view.Title, "a rewin presents the root post's content")
	assert.Equal(t, "world", view.Content)
}

func TestSelfRewinRejected(t *testing.T) {
	s := New()
	pair(t, s)
	original, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	rewin, code := s.Rewin("alice", original)
	require.Equal(t, wire.Success, code)

	_, code = s.Rewin("bob", original)
	assert.Equal(t, wire.UserSelfRewin, code)
	// through the rewin the ultimate author is still bob
	_, code = s.Rewin("bob", rewin)
	assert.Equal(t, wire.UserSelfRewin, code)

	_, code = s.Rewin("alice", 999)
	assert.Equal(t, wire.OriginalPostNotExists, code)
}

func TestDeleteCascades(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "chess")
	require.Equal(t, wire.Success, s.Follow("carol", "bob"))
	require.Equal(t, wire.Success, s.Follow("carol", "alice"))

	root, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	rewin, code := s.Rewin("alice", root)
	require.Equal(t, wire.Success, code)
	keeper, code := s.CreatePost("bob", "keeper", "stays")
	require.Equal(t, wire.Success, code)

	_, code = s.CreateComment("alice", root, "on root")
	require.Equal(t, wire.Success, code)
	_, code = s.CreateComment("carol", rewin, "on rewin")
	require.Equal(t, wire.Success, code)
	kept, code := s.CreateComment("alice", keeper, "survives")
	require.Equal(t, wire.Success, code)

	assert.Equal(t, wire.NotAuthorized, s.DeletePost("alice", root))
	require.Equal(t, wire.Success, s.DeletePost("bob", root))

	_, code = s.ShowPost("bob", root)
	assert.Equal(t, wire.EntityNotExists, code)
	_, code = s.ShowPost("bob", rewin)
	assert.Equal(t, wire.EntityNotExists, code, "rewin goes with its root")

	// exactly the comments on removed posts are gone
	s.commentsMu.RLock()
	remaining := len(s.comments)
	_, keptAlive := s.comments[kept]
	s.commentsMu.RUnlock()
	assert.Equal(t, 1, remaining)
	assert.True(t, keptAlive)

	// the rewin left alice's blog as well
	headers, code := s.Blog("alice", 0)
	require.Equal(t, wire.Success, code)
	assert.Empty(t, headers)
}

func TestFeedPagination(t *testing.T) {
	s := New()
	pair(t, s)
	seed(t, s, "carol", "music")
	require.Equal(t, wire.Success, s.Follow("alice", "carol"))

	ids := make([]int32, 0, 12)
	for n := 0; n < 6; n++ {
		id, code := s.CreatePost("bob", "b", fmt.Sprintf("bob %d", n))
		require.Equal(t, wire.Success, code)
		ids = append(ids, id)
		id, code = s.CreatePost("carol", "c", fmt.Sprintf("carol %d", n))
		require.Equal(t, wire.Success, code)
		ids = append(ids, id)
	}
	// alice's own posts never enter her feed
	_, code := s.CreatePost("alice", "mine", "not in feed")
	require.Equal(t, wire.Success, code)

	collected := make([]int32, 0, len(ids))
	for page := int32(0); ; page++ {
		headers, code := s.Feed("alice", page)
		require.Equal(t, wire.Success, code)
		if len(headers) == 0 {
			break
		}
		require.LessOrEqual(t, len(headers), PageSize)
		for _, h := range headers {
			require.NotEqual(t, "alice", h.Author)
			collected = append(collected, h.ID)
		}
	}
	assert.ElementsMatch(t, ids, collected, "pages concatenate to exactly the followed posts")
	for n := 1; n < len(collected); n++ {
		assert.Greater(t, collected[n-1], collected[n], "newest first across page boundaries")
	}

	_, code = s.Feed("alice", -1)
	assert.Equal(t, wire.InvalidParameters, code)
}

func TestBlogServedFromCache(t *testing.T) {
	s := New()
	pair(t, s)
	postID, code := s.CreatePost("alice", "own", "post")
	require.Equal(t, wire.Success, code)
	bobPost, code := s.CreatePost("bob", "hello", "world")
	require.Equal(t, wire.Success, code)
	rewinID, code := s.Rewin("alice", bobPost)
	require.Equal(t, wire.Success, code)

	headers, code := s.Blog("alice", 0)
	require.Equal(t, wire.Success, code)
	require.Len(t, headers, 2)
	assert.Equal(t, rewinID, headers[0].ID, "newest first")
	assert.Equal(t, postID, headers[1].ID)
	assert.Equal(t, bobPost, headers[0].Original)

	headers, code = s.Blog("alice", 1)
	require.Equal(t, wire.Success, code)
	assert.Empty(t, headers)
}

func TestFeedScenario(t *testing.T) {
	// the register/follow/post/delete walk-through end to end on the store
	s := New()
	seed(t, s, "A", "chess")
	seed(t, s, "B", "chess", "music")
	require.Equal(t, wire.Success, s.Follow("A", "B"))
	postID, code := s.CreatePost("B", "hello", "world")
	require.Equal(t, wire.Success, code)

	headers, code := s.Feed("A", 0)
	require.Equal(t, wire.Success, code)
	require.Len(t, headers, 1)
	assert.Equal(t, "hello", headers[0].Title)

	assert.Equal(t, wire.NotAuthorized, s.DeletePost("A", postID))
	require.Equal(t, wire.Success, s.DeletePost("B", postID))
	headers, code = s.Feed("A", 0)
	require.Equal(t, wire.Success, code)
	assert.Empty(t, headers)
}
