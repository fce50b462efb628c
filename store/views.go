package store

import "time"

// Views are the only shapes that leave the store: plain values deep-copied
// inside the owning entity's read scope, safe to hold and serialize without
// any synchronization. No live entity reference ever crosses the store
// boundary.

type UserView struct {
	Name string
	Tags []string
}

type CommentView struct {
	ID        int32
	Owner     string
	Content   string
	Upvotes   int32
	Downvotes int32
	Created   time.Time
}

type PostView struct {
	ID             int32
	Author         string
	Title          string
	Content        string
	Created        time.Time
	Upvotes        int32
	Downvotes      int32
	Original       int32 // zero when not a rewin
	OriginalAuthor string
	Comments       []CommentView
}

// PostHeader is the feed/blog pagination line: identity fields only, so it
// needs no entity scope at all.
type PostHeader struct {
	ID       int32
	Author   string
	Title    string
	Original int32
	Created  time.Time
}

type WalletView struct {
	Total        float64
	Transactions []Transaction
}

func (u *User) view() UserView {
	return UserView{Name: u.Name, Tags: append([]string(nil), u.Tags...)}
}

func (p *Post) header() PostHeader {
	return PostHeader{ID: p.ID, Author: p.Author, Title: p.Title, Original: p.Original, Created: p.Created}
}

// copyWallet detaches a wallet; the caller holds the owning user's scope.
func copyWallet(w Wallet) WalletView {
	return WalletView{
		Total:        w.Total,
		Transactions: append([]Transaction(nil), w.Transactions...),
	}
}
