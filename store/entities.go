package store

import "time"

// Identity fields of every entity (names, ids, titles, contents, creation
// times, the collapsed rewin reference) are fixed at creation and may be
// read without entering the entity's scope. Everything that mutates after
// creation (follow sets, blogs, wallets, vote tables, comment lists, the
// reward iteration counter) lives behind the embedded guard.

type User struct {
	guard
	Name      string // original spelling; the table key is the lowercase form
	Hash      string // password hash as presented by the client
	Tags      []string
	Followed  map[string]struct{} // lowercase usernames this user follows
	Followers map[string]struct{}
	Blog      []int32 // own posts and rewins, newest first
	Wallet    Wallet
}

type Wallet struct {
	Total        float64
	Transactions []Transaction
}

type Transaction struct {
	Amount    float64
	Timestamp time.Time
}

type Vote struct {
	Voter   string
	Up      bool
	Counted bool // consumed by the reward engine
}

type Post struct {
	guard
	ID      int32
	Author  string
	Title   string // empty on a rewin; content lives on the original
	Content string
	Created time.Time

	// Original is the id of the root, non-rewin post this one rewins, or
	// zero. Chains collapse at creation, so it is never itself a rewin.
	Original       int32
	OriginalAuthor string

	Votes     map[string]*Vote
	Upvotes   int32
	Downvotes int32
	Comments  []int32 // creation order
	Age       int64   // reward runs that touched this post
}

type Comment struct {
	guard
	ID      int32
	PostID  int32
	Owner   string
	Content string
	Created time.Time

	Votes     map[string]*Vote
	Upvotes   int32
	Downvotes int32
}
