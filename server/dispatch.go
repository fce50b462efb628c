package server

import (
	"github.com/winsomenet/winsome/store"
	"github.com/winsomenet/winsome/wire"
)

// dispatch decodes one complete frame, executes the matching store
// operation and flushes the typed response. It runs on a worker; the only
// errors it returns are transport failures, which kill the connection.
// Everything else becomes a result code on the wire.
func (s *session) dispatch(data []byte) error {
	s.setState(stateDispatching)
	s.in.Load(data)
	t, err := s.in.ReadInt32()
	if err != nil {
		return s.status(wire.MsgUnknown, wire.InvalidParameters)
	}
	msg := wire.MsgType(t)

	if msg != wire.MsgLogin && s.user == "" {
		return s.status(msg, wire.ClientNotLoggedIn)
	}

	switch msg {
	case wire.MsgLogin:
		return s.login()
	case wire.MsgLogout:
		code := s.srv.store.Logout(s.user, s.id)
		if code == wire.Success {
			s.user = ""
			s.closing = true
		}
		return s.status(msg, code)
	case wire.MsgFollow:
		req, err := wire.DecodeTargetRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		return s.status(msg, s.srv.store.Follow(s.user, req.Target))
	case wire.MsgUnfollow:
		req, err := wire.DecodeTargetRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		return s.status(msg, s.srv.store.Unfollow(s.user, req.Target))
	case wire.MsgListUsers:
		users, code := s.srv.store.ListUsers(s.user)
		resp := wire.UsersResponse{Code: code}
		for _, u := range users {
			resp.Users = append(resp.Users, wire.UserInfo{Username: u.Name, Tags: u.Tags})
		}
		return s.flush(resp.Encode(&s.out))
	case wire.MsgCreatePost:
		req, err := wire.DecodeCreatePostRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		id, code := s.srv.store.CreatePost(s.user, req.Title, req.Content)
		resp := wire.IDResponse{Code: code, ID: id}
		return s.flush(resp.Encode(&s.out, msg))
	case wire.MsgDeletePost:
		req, err := wire.DecodePostRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		return s.status(msg, s.srv.store.DeletePost(s.user, req.ID))
	case wire.MsgShowPost:
		req, err := wire.DecodePostRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		view, code := s.srv.store.ShowPost(s.user, req.ID)
		resp := wire.PostResponse{Code: code, Post: postInfo(view)}
		return s.flush(resp.Encode(&s.out))
	case wire.MsgShowFeed, wire.MsgViewBlog:
		req, err := wire.DecodePageRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		var headers []store.PostHeader
		var code wire.Code
		if msg == wire.MsgShowFeed {
			headers, code = s.srv.store.Feed(s.user, req.Page)
		} else {
			headers, code = s.srv.store.Blog(s.user, req.Page)
		}
		resp := wire.PostListResponse{Code: code}
		for _, h := range headers {
			resp.Posts = append(resp.Posts, wire.PostSummary{
				ID: h.ID, Author: h.Author, Title: h.Title,
				Original: h.Original, Created: h.Created.UnixMilli(),
			})
		}
		return s.flush(resp.Encode(&s.out, msg))
	case wire.MsgRewinPost:
		req, err := wire.DecodePostRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		id, code := s.srv.store.Rewin(s.user, req.ID)
		resp := wire.IDResponse{Code: code, ID: id}
		return s.flush(resp.Encode(&s.out, msg))
	case wire.MsgRatePost:
		req, err := wire.DecodeRateRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		return s.status(msg, s.srv.store.RatePost(s.user, req.ID, req.Up))
	case wire.MsgRateComment:
		req, err := wire.DecodeRateRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		return s.status(msg, s.srv.store.RateComment(s.user, req.ID, req.Up))
	case wire.MsgCreateComment:
		req, err := wire.DecodeCreateCommentRequest(&s.in)
		if err != nil {
			return s.status(msg, wire.InvalidParameters)
		}
		id, code := s.srv.store.CreateComment(s.user, req.PostID, req.Content)
		resp := wire.IDResponse{Code: code, ID: id}
		return s.flush(resp.Encode(&s.out, msg))
	case wire.MsgWallet:
		view, code := s.srv.store.WalletOf(s.user)
		resp := wire.WalletResponse{Code: code, Total: view.Total}
		for _, tx := range view.Transactions {
			resp.Transactions = append(resp.Transactions, wire.TransactionInfo{
				Amount: tx.Amount, Timestamp: tx.Timestamp.UnixMilli(),
			})
		}
		return s.flush(resp.Encode(&s.out))
	default:
		return s.status(wire.MsgUnknown, wire.UnknownMessage)
	}
}

func (s *session) login() error {
	req, err := wire.DecodeLoginRequest(&s.in)
	resp := wire.LoginResponse{Multicast: s.srv.multicast}
	switch {
	case err != nil:
		resp.Code = wire.InvalidParameters
	case s.user != "":
		resp.Code = wire.ClientAlreadyLoggedIn
	default:
		resp.Code = s.srv.store.Login(req.Username, req.Hash, s.id)
		if resp.Code == wire.Success {
			s.user = req.Username
		}
	}
	return s.flush(resp.Encode(&s.out))
}

// status answers with the bare result-code response paired to the request.
func (s *session) status(msg wire.MsgType, code wire.Code) error {
	resp := wire.StatusResponse{Code: code}
	return s.flush(resp.Encode(&s.out, msg))
}

func postInfo(v store.PostView) wire.PostInfo {
	info := wire.PostInfo{
		ID: v.ID, Author: v.Author, Title: v.Title, Content: v.Content,
		Created: v.Created.UnixMilli(), Upvotes: v.Upvotes, Downvotes: v.Downvotes,
		Original: v.Original, OriginalAuthor: v.OriginalAuthor,
	}
	for _, c := range v.Comments {
		info.Comments = append(info.Comments, wire.CommentInfo{
			ID: c.ID, Owner: c.Owner, Content: c.Content,
			Upvotes: c.Upvotes, Downvotes: c.Downvotes, Created: c.Created.UnixMilli(),
		})
	}
	return info
}
