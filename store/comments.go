package store

import "github.com/winsomenet/winsome/wire"

func (s *Store) post(id int32) *Post {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	return s.posts[id]
}

// CreateComment attaches a comment to a post in the caller's feed. Users
// cannot comment on their own posts and need no prior comment quota: any
// number of comments per user per post is allowed.
func (s *Store) CreateComment(actor string, postID int32, content string) (int32, wire.Code) {
	if content == "" || len(content) > maxCommentLen {
		return 0, wire.InvalidParameters
	}
	owner := s.user(actor)
	if owner == nil {
		return 0, wire.ClientNotLoggedIn
	}
	post := s.post(postID)
	if post == nil {
		return 0, wire.EntityNotExists
	}
	if key(post.Author) == key(actor) {
		return 0, wire.UserSelfComment
	}
	if !s.inFeed(actor, post) {
		return 0, wire.PostNotInFeed
	}
	comment := &Comment{
		PostID:  postID,
		Owner:   owner.Name,
		Content: content,
		Created: s.now(),
		Votes:   make(map[string]*Vote),
	}
	// The insert and the slice append happen under the read side of postsMu,
	// after rechecking that the post is still in the table. A delete cascade
	// holds the write side while it collects comment ids, so a comment
	// either lands before the cascade and is removed with the post, or the
	// recheck fails here; it can never be stranded in s.comments.
	s.postsMu.RLock()
	if s.posts[postID] != post {
		s.postsMu.RUnlock()
		return 0, wire.EntityNotExists
	}
	s.commentsMu.Lock()
	for {
		id := s.nextComment
		s.nextComment++
		if _, taken := s.comments[id]; !taken {
			comment.ID = id
			break
		}
	}
	s.comments[comment.ID] = comment
	s.commentsMu.Unlock()

	post.writeScope()
	post.Comments = append(post.Comments, comment.ID)
	post.writeDone()
	s.postsMu.RUnlock()
	return comment.ID, wire.Success
}

// rate casts one vote on a votable entity's table under its write scope.
// The existence and authorization checks ran under a read scope that was
// released before this call; the vote table is rechecked here rather than
// upgrading the lock.
func rate(g *guard, votes map[string]*Vote, up *int32, down *int32, voter string, upvote bool) wire.Code {
	g.writeScope()
	defer g.writeDone()
	if _, dup := votes[key(voter)]; dup {
		return wire.UserAlreadyVoted
	}
	votes[key(voter)] = &Vote{Voter: voter, Up: upvote}
	if upvote {
		*up++
	} else {
		*down++
	}
	return wire.Success
}

// RatePost votes a post up or down. The post must sit in the caller's feed
// and must not be the caller's own; a voter gets exactly one vote.
func (s *Store) RatePost(actor string, postID int32, up bool) wire.Code {
	if s.user(actor) == nil {
		return wire.ClientNotLoggedIn
	}
	post := s.post(postID)
	if post == nil {
		return wire.EntityNotExists
	}
	if key(post.Author) == key(actor) {
		return wire.UserSelfVote
	}
	if !s.inFeed(actor, post) {
		return wire.PostNotInFeed
	}
	return rate(&post.guard, post.Votes, &post.Upvotes, &post.Downvotes, actor, up)
}

// RateComment votes a comment up or down. The caller must follow the
// comment's owner and must not be that owner.
func (s *Store) RateComment(actor string, commentID int32, up bool) wire.Code {
	if s.user(actor) == nil {
		return wire.ClientNotLoggedIn
	}
	s.commentsMu.RLock()
	comment, ok := s.comments[commentID]
	s.commentsMu.RUnlock()
	if !ok {
		return wire.EntityNotExists
	}
	if key(comment.Owner) == key(actor) {
		return wire.UserSelfVote
	}
	if !s.Follows(actor, comment.Owner) {
		return wire.UserNotFollowed
	}
	return rate(&comment.guard, comment.Votes, &comment.Upvotes, &comment.Downvotes, actor, up)
}

// WalletOf returns a detached copy of the caller's wallet.
func (s *Store) WalletOf(actor string) (WalletView, wire.Code) {
	u := s.user(actor)
	if u == nil {
		return WalletView{}, wire.ClientNotLoggedIn
	}
	u.readScope()
	defer u.readDone()
	return copyWallet(u.Wallet), wire.Success
}
