package store

import (
	"sort"

	"github.com/winsomenet/winsome/wire"
)

// allocPostID hands out the next unused id. Ids grow monotonically; a slot
// already occupied (possible after restoring persisted state) is skipped,
// leaving the gap.
func (s *Store) allocPostID() int32 {
	for {
		id := s.nextPost
		s.nextPost++
		if _, taken := s.posts[id]; !taken {
			return id
		}
	}
}

func (s *Store) insertPost(post *Post, author *User) {
	s.postsMu.Lock()
	post.ID = s.allocPostID()
	s.posts[post.ID] = post
	s.postsMu.Unlock()
	author.writeScope()
	author.Blog = append([]int32{post.ID}, author.Blog...)
	author.writeDone()
}

func (s *Store) CreatePost(actor, title, content string) (int32, wire.Code) {
	if title == "" || content == "" || len(title) > maxTitleLen || len(content) > maxContentLen {
		return 0, wire.InvalidParameters
	}
	author := s.user(actor)
	if author == nil {
		return 0, wire.ClientNotLoggedIn
	}
	post := &Post{
		Author:  author.Name,
		Title:   title,
		Content: content,
		Created: s.now(),
		Votes:   make(map[string]*Vote),
	}
	s.insertPost(post, author)
	return post.ID, wire.Success
}

// Rewin republishes another user's post. The reference always collapses to
// the root, non-rewin post, so chains are one hop deep; a user cannot rewin
// content whose ultimate author is themselves.
func (s *Store) Rewin(actor string, postID int32) (int32, wire.Code) {
	author := s.user(actor)
	if author == nil {
		return 0, wire.ClientNotLoggedIn
	}
	s.postsMu.RLock()
	target, ok := s.posts[postID]
	rootID := postID
	rootAuthor := ""
	if ok {
		if target.Original != 0 {
			rootID = target.Original
			if root, ok := s.posts[rootID]; ok {
				rootAuthor = root.Author
			} else {
				ok = false
			}
		} else {
			rootAuthor = target.Author
		}
	}
	// The shape lock cannot be promoted to write here; release it and let
	// insertPost revalidate nothing: the root may disappear between the
	// check and the insert, which the delete cascade repairs by removing
	// orphaned rewins in the same structural critical section.
	s.postsMu.RUnlock()
	if !ok {
		return 0, wire.OriginalPostNotExists
	}
	if key(rootAuthor) == key(actor) {
		return 0, wire.UserSelfRewin
	}
	rewin := &Post{
		Author:         author.Name,
		Created:        s.now(),
		Original:       rootID,
		OriginalAuthor: rootAuthor,
		Votes:          make(map[string]*Vote),
	}
	s.postsMu.Lock()
	if _, still := s.posts[rootID]; !still {
		s.postsMu.Unlock()
		return 0, wire.OriginalPostNotExists
	}
	rewin.ID = s.allocPostID()
	s.posts[rewin.ID] = rewin
	s.postsMu.Unlock()
	author.writeScope()
	author.Blog = append([]int32{rewin.ID}, author.Blog...)
	author.writeDone()
	return rewin.ID, wire.Success
}

// DeletePost removes a post authored by actor. Deleting a root post also
// removes every rewin resolving to it and every comment on all removed
// posts; blog caches of every affected author are trimmed afterwards.
func (s *Store) DeletePost(actor string, postID int32) wire.Code {
	s.postsMu.Lock()
	post, ok := s.posts[postID]
	if !ok {
		s.postsMu.Unlock()
		return wire.EntityNotExists
	}
	if key(post.Author) != key(actor) {
		s.postsMu.Unlock()
		return wire.NotAuthorized
	}
	removed := []*Post{post}
	if post.Original == 0 {
		for _, p := range s.posts {
			if p.Original == postID {
				removed = append(removed, p)
			}
		}
	}
	commentIDs := make([]int32, 0)
	byAuthor := make(map[string][]int32)
	for _, p := range removed {
		delete(s.posts, p.ID)
		byAuthor[key(p.Author)] = append(byAuthor[key(p.Author)], p.ID)
		p.readScope()
		commentIDs = append(commentIDs, p.Comments...)
		p.readDone()
	}
	s.commentsMu.Lock()
	for _, id := range commentIDs {
		delete(s.comments, id)
	}
	s.commentsMu.Unlock()
	s.postsMu.Unlock()

	for authorKey, ids := range byAuthor {
		u := s.user(authorKey)
		if u == nil {
			continue
		}
		gone := make(map[int32]struct{}, len(ids))
		for _, id := range ids {
			gone[id] = struct{}{}
		}
		u.writeScope()
		blog := u.Blog[:0]
		for _, id := range u.Blog {
			if _, dead := gone[id]; !dead {
				blog = append(blog, id)
			}
		}
		u.Blog = blog
		u.writeDone()
	}
	return wire.Success
}

// ShowPost returns a full detached copy of the post. A rewin presents the
// root post's title and content with its own votes and comments.
func (s *Store) ShowPost(actor string, postID int32) (PostView, wire.Code) {
	if s.user(actor) == nil {
		return PostView{}, wire.ClientNotLoggedIn
	}
	s.postsMu.RLock()
	post, ok := s.posts[postID]
	var root *Post
	if ok && post.Original != 0 {
		root = s.posts[post.Original]
	}
	s.postsMu.RUnlock()
	if !ok {
		return PostView{}, wire.EntityNotExists
	}
	view := PostView{
		ID:             post.ID,
		Author:         post.Author,
		Title:          post.Title,
		Content:        post.Content,
		Created:        post.Created,
		Original:       post.Original,
		OriginalAuthor: post.OriginalAuthor,
	}
	if root != nil {
		view.Title = root.Title
		view.Content = root.Content
	}
	post.readScope()
	view.Upvotes = post.Upvotes
	view.Downvotes = post.Downvotes
	commentIDs := append([]int32(nil), post.Comments...)
	post.readDone()

	s.commentsMu.RLock()
	comments := make([]*Comment, 0, len(commentIDs))
	for _, id := range commentIDs {
		if c, ok := s.comments[id]; ok {
			comments = append(comments, c)
		}
	}
	s.commentsMu.RUnlock()
	view.Comments = make([]CommentView, 0, len(comments))
	for _, c := range comments {
		c.readScope()
		view.Comments = append(view.Comments, CommentView{
			ID: c.ID, Owner: c.Owner, Content: c.Content,
			Upvotes: c.Upvotes, Downvotes: c.Downvotes, Created: c.Created,
		})
		c.readDone()
	}
	return view, wire.Success
}

func newestFirst(headers []PostHeader) {
	sort.Slice(headers, func(i, j int) bool {
		if headers[i].Created.Equal(headers[j].Created) {
			return headers[i].ID > headers[j].ID
		}
		return headers[i].Created.After(headers[j].Created)
	})
}

func page(headers []PostHeader, pageNum int32) []PostHeader {
	from := int(pageNum) * PageSize
	if from >= len(headers) {
		return []PostHeader{}
	}
	to := from + PageSize
	if to > len(headers) {
		to = len(headers)
	}
	return headers[from:to]
}

// Feed returns one page of posts authored by accounts the caller follows,
// the caller's own posts excluded, newest first.
func (s *Store) Feed(actor string, pageNum int32) ([]PostHeader, wire.Code) {
	if pageNum < 0 {
		return nil, wire.InvalidParameters
	}
	a := s.user(actor)
	if a == nil {
		return nil, wire.ClientNotLoggedIn
	}
	a.readScope()
	followed := make(map[string]struct{}, len(a.Followed))
	for k := range a.Followed {
		followed[k] = struct{}{}
	}
	a.readDone()

	s.postsMu.RLock()
	headers := make([]PostHeader, 0)
	for _, p := range s.posts {
		if _, ok := followed[key(p.Author)]; ok {
			headers = append(headers, p.header())
		}
	}
	s.postsMu.RUnlock()
	newestFirst(headers)
	return page(headers, pageNum), wire.Success
}

// Blog returns one page of the caller's own posts and rewins, served from
// the per-user cache instead of a table scan.
func (s *Store) Blog(actor string, pageNum int32) ([]PostHeader, wire.Code) {
	if pageNum < 0 {
		return nil, wire.InvalidParameters
	}
	a := s.user(actor)
	if a == nil {
		return nil, wire.ClientNotLoggedIn
	}
	a.readScope()
	ids := append([]int32(nil), a.Blog...)
	a.readDone()

	from := int(pageNum) * PageSize
	if from >= len(ids) {
		return []PostHeader{}, wire.Success
	}
	to := from + PageSize
	if to > len(ids) {
		to = len(ids)
	}
	s.postsMu.RLock()
	headers := make([]PostHeader, 0, to-from)
	for _, id := range ids[from:to] {
		if p, ok := s.posts[id]; ok {
			headers = append(headers, p.header())
		}
	}
	s.postsMu.RUnlock()
	return headers, wire.Success
}

// InFeed reports whether the post would appear in actor's feed, which is
// the precondition for voting and commenting on it.
func (s *Store) inFeed(actor string, post *Post) bool {
	return s.Follows(actor, post.Author)
}
