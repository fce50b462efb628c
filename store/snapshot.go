package store

import "time"

// State is the full persistable image of the store: plain values only, deep
// copied on the way out and in. The save/load component decides the on-disk
// format; sessions are deliberately absent since they die with connections.

type State struct {
	Users    []UserState
	Posts    []PostState
	Comments []CommentState
}

type UserState struct {
	Name     string
	Hash     string
	Tags     []string
	Followed []string
	Blog     []int32
	Wallet   Wallet
}

type PostState struct {
	ID             int32
	Author         string
	Title          string
	Content        string
	Created        time.Time
	Original       int32
	OriginalAuthor string
	Age            int64
	Votes          []Vote
	Comments       []int32
}

type CommentState struct {
	ID      int32
	PostID  int32
	Owner   string
	Content string
	Created time.Time
	Votes   []Vote
}

// Snapshot produces a consistent deep copy of all entities. Collection
// locks pin the shape while entity scopes are entered one at a time.
func (s *Store) Snapshot() State {
	state := State{}

	s.usersMu.RLock()
	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.usersMu.RUnlock()
	for _, u := range users {
		u.readScope()
		us := UserState{
			Name:     u.Name,
			Hash:     u.Hash,
			Tags:     append([]string(nil), u.Tags...),
			Followed: make([]string, 0, len(u.Followed)),
			Blog:     append([]int32(nil), u.Blog...),
			Wallet: Wallet{
				Total:        u.Wallet.Total,
				Transactions: append([]Transaction(nil), u.Wallet.Transactions...),
			},
		}
		for k := range u.Followed {
			us.Followed = append(us.Followed, k)
		}
		u.readDone()
		state.Users = append(state.Users, us)
	}

	s.postsMu.RLock()
	posts := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	s.postsMu.RUnlock()
	for _, p := range posts {
		p.readScope()
		ps := PostState{
			ID: p.ID, Author: p.Author, Title: p.Title, Content: p.Content,
			Created: p.Created, Original: p.Original, OriginalAuthor: p.OriginalAuthor,
			Age:      p.Age,
			Votes:    make([]Vote, 0, len(p.Votes)),
			Comments: append([]int32(nil), p.Comments...),
		}
		for _, v := range p.Votes {
			ps.Votes = append(ps.Votes, *v)
		}
		p.readDone()
		state.Posts = append(state.Posts, ps)
	}

	s.commentsMu.RLock()
	comments := make([]*Comment, 0, len(s.comments))
	for _, c := range s.comments {
		comments = append(comments, c)
	}
	s.commentsMu.RUnlock()
	for _, c := range comments {
		c.readScope()
		cs := CommentState{
			ID: c.ID, PostID: c.PostID, Owner: c.Owner, Content: c.Content,
			Created: c.Created, Votes: make([]Vote, 0, len(c.Votes)),
		}
		for _, v := range c.Votes {
			cs.Votes = append(cs.Votes, *v)
		}
		c.readDone()
		state.Comments = append(state.Comments, cs)
	}
	return state
}

// Restore seeds the store from a persisted state. It runs at startup before
// any connection is accepted, so it takes no entity scopes. Follower sets
// and vote counters are rebuilt rather than trusted from disk.
func (s *Store) Restore(state State) {
	s.usersMu.Lock()
	s.postsMu.Lock()
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	defer s.postsMu.Unlock()
	defer s.usersMu.Unlock()

	s.users = make(map[string]*User, len(state.Users))
	for _, us := range state.Users {
		u := &User{
			Name:      us.Name,
			Hash:      us.Hash,
			Tags:      append([]string(nil), us.Tags...),
			Followed:  make(map[string]struct{}, len(us.Followed)),
			Followers: make(map[string]struct{}),
			Blog:      append([]int32(nil), us.Blog...),
			Wallet: Wallet{
				Total:        us.Wallet.Total,
				Transactions: append([]Transaction(nil), us.Wallet.Transactions...),
			},
		}
		for _, f := range us.Followed {
			u.Followed[key(f)] = struct{}{}
		}
		s.users[key(us.Name)] = u
	}
	for k, u := range s.users {
		for f := range u.Followed {
			if target, ok := s.users[f]; ok {
				target.Followers[k] = struct{}{}
			}
		}
	}

	s.posts = make(map[int32]*Post, len(state.Posts))
	s.nextPost = 1
	for _, ps := range state.Posts {
		p := &Post{
			ID: ps.ID, Author: ps.Author, Title: ps.Title, Content: ps.Content,
			Created: ps.Created, Original: ps.Original, OriginalAuthor: ps.OriginalAuthor,
			Age:      ps.Age,
			Votes:    make(map[string]*Vote, len(ps.Votes)),
			Comments: append([]int32(nil), ps.Comments...),
		}
		for _, v := range ps.Votes {
			vote := v
			p.Votes[key(v.Voter)] = &vote
			if v.Up {
				p.Upvotes++
			} else {
				p.Downvotes++
			}
		}
		s.posts[p.ID] = p
		if p.ID >= s.nextPost {
			s.nextPost = p.ID + 1
		}
	}

	s.comments = make(map[int32]*Comment, len(state.Comments))
	s.nextComment = 1
	for _, cs := range state.Comments {
		c := &Comment{
			ID: cs.ID, PostID: cs.PostID, Owner: cs.Owner, Content: cs.Content,
			Created: cs.Created,
			Votes:   make(map[string]*Vote, len(cs.Votes)),
		}
		for _, v := range cs.Votes {
			vote := v
			c.Votes[key(v.Voter)] = &vote
			if v.Up {
				c.Upvotes++
			} else {
				c.Downvotes++
			}
		}
		s.comments[c.ID] = c
		if c.ID >= s.nextComment {
			s.nextComment = c.ID + 1
		}
	}
}
