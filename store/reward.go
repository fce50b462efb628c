package store

import "time"

// The reward engine walks the store through the same API and lock
// discipline the request path uses: harvest one post's fresh activity under
// its write scope, then credit wallets one user at a time.

// Harvest is one post's activity relevant to a single reward run, fully
// detached from the store.
type Harvest struct {
	Author string
	Age    int64 // reward iterations including the current one

	// VoteScore is upvotes minus downvotes over the votes first counted in
	// this run; those votes are marked consumed and never contribute again.
	VoteScore int
	Voters    []string // the newly counted voters

	// CommentCounts maps each commenter to their total comment count on
	// the post, feeding the saturating engagement term once per run.
	CommentCounts map[string]int
}

// PostIDs snapshots the ids currently in the post table.
func (s *Store) PostIDs() []int32 {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	ids := make([]int32, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	return ids
}

// HarvestPost consumes the post's uncounted votes, advances its iteration
// counter and reports the activity of this run. The second return is false
// when the post vanished between the id snapshot and the harvest.
func (s *Store) HarvestPost(id int32) (Harvest, bool) {
	post := s.post(id)
	if post == nil {
		return Harvest{}, false
	}
	h := Harvest{Author: post.Author}

	post.writeScope()
	post.Age++
	h.Age = post.Age
	for _, vote := range post.Votes {
		if vote.Counted {
			continue
		}
		vote.Counted = true
		if vote.Up {
			h.VoteScore++
		} else {
			h.VoteScore--
		}
		h.Voters = append(h.Voters, key(vote.Voter))
	}
	commentIDs := append([]int32(nil), post.Comments...)
	post.writeDone()

	s.commentsMu.RLock()
	h.CommentCounts = make(map[string]int)
	for _, cid := range commentIDs {
		if c, ok := s.comments[cid]; ok {
			h.CommentCounts[key(c.Owner)]++
		}
	}
	s.commentsMu.RUnlock()
	return h, true
}

// Credit appends a wallet transaction, keeping the running total equal to
// the transaction sum. Only the reward engine and state restore call it.
func (s *Store) Credit(username string, amount float64, at time.Time) bool {
	u := s.user(username)
	if u == nil {
		return false
	}
	u.writeScope()
	u.Wallet.Transactions = append(u.Wallet.Transactions, Transaction{Amount: amount, Timestamp: at})
	u.Wallet.Total += amount
	u.writeDone()
	return true
}
