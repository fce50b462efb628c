package wire

// One encode/decode pair per message type. Encoding always goes through a
// caller-owned Frame so buffers can be reused across requests; the slice
// returned by Encode aliases that frame. Decoding assumes the frame cursor
// sits right after the message type field.
//
// Entity ids are int32 on the wire. A nullable id slot (the original-post
// reference of a rewin) carries Absent when empty; in decoded form the zero
// value means "not a rewin" since real ids start at 1.

type LoginRequest struct {
	Username string
	Hash     string
}

func (r *LoginRequest) Encode(f *Frame) []byte {
	f.Begin(MsgLogin)
	f.WriteString(r.Username)
	f.WriteString(r.Hash)
	return f.Seal()
}

func DecodeLoginRequest(f *Frame) (r LoginRequest, err error) {
	if r.Username, err = f.ReadString(); err != nil {
		return
	}
	r.Hash, err = f.ReadString()
	return
}

// LoginResponse carries the multicast group address clients join for wallet
// update pings.
type LoginResponse struct {
	Code      Code
	Multicast string
}

func (r *LoginResponse) Encode(f *Frame) []byte {
	f.Begin(MsgLogin.Response())
	f.WriteInt32(int32(r.Code))
	f.WriteString(r.Multicast)
	return f.Seal()
}

func DecodeLoginResponse(f *Frame) (r LoginResponse, err error) {
	var code int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	r.Multicast, err = f.ReadString()
	return
}

// TargetRequest is the shared shape of follow and unfollow.
type TargetRequest struct {
	Target string
}

func (r *TargetRequest) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t)
	f.WriteString(r.Target)
	return f.Seal()
}

func DecodeTargetRequest(f *Frame) (r TargetRequest, err error) {
	r.Target, err = f.ReadString()
	return
}

// PostRequest is the shared shape of every request addressing one entity by
// id: delete, show, rewin.
type PostRequest struct {
	ID int32
}

func (r *PostRequest) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t)
	f.WriteInt32(r.ID)
	return f.Seal()
}

func DecodePostRequest(f *Frame) (r PostRequest, err error) {
	r.ID, err = f.ReadInt32()
	return
}

// PageRequest is the shared shape of feed and blog pagination.
type PageRequest struct {
	Page int32
}

func (r *PageRequest) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t)
	f.WriteInt32(r.Page)
	return f.Seal()
}

func DecodePageRequest(f *Frame) (r PageRequest, err error) {
	r.Page, err = f.ReadInt32()
	return
}

// RateRequest votes one entity up or down; it serves both rate-post and
// rate-comment.
type RateRequest struct {
	ID int32
	Up bool
}

func (r *RateRequest) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t)
	f.WriteInt32(r.ID)
	f.WriteBool(r.Up)
	return f.Seal()
}

func DecodeRateRequest(f *Frame) (r RateRequest, err error) {
	if r.ID, err = f.ReadInt32(); err != nil {
		return
	}
	r.Up, err = f.ReadBool()
	return
}

type CreatePostRequest struct {
	Title   string
	Content string
}

func (r *CreatePostRequest) Encode(f *Frame) []byte {
	f.Begin(MsgCreatePost)
	f.WriteString(r.Title)
	f.WriteString(r.Content)
	return f.Seal()
}

func DecodeCreatePostRequest(f *Frame) (r CreatePostRequest, err error) {
	if r.Title, err = f.ReadString(); err != nil {
		return
	}
	r.Content, err = f.ReadString()
	return
}

type CreateCommentRequest struct {
	PostID  int32
	Content string
}

func (r *CreateCommentRequest) Encode(f *Frame) []byte {
	f.Begin(MsgCreateComment)
	f.WriteInt32(r.PostID)
	f.WriteString(r.Content)
	return f.Seal()
}

func DecodeCreateCommentRequest(f *Frame) (r CreateCommentRequest, err error) {
	if r.PostID, err = f.ReadInt32(); err != nil {
		return
	}
	r.Content, err = f.ReadString()
	return
}

// EmptyRequest covers logout, list-users and wallet, whose payloads carry
// nothing beyond the frame header.
func EncodeEmptyRequest(f *Frame, t MsgType) []byte {
	f.Begin(t)
	return f.Seal()
}

// StatusResponse is the bare result-code reply shared by every operation
// that returns no data.
type StatusResponse struct {
	Code Code
}

func (r *StatusResponse) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t.Response())
	f.WriteInt32(int32(r.Code))
	return f.Seal()
}

func DecodeStatusResponse(f *Frame) (r StatusResponse, err error) {
	var code int32
	code, err = f.ReadInt32()
	r.Code = Code(code)
	return
}

// IDResponse returns the id assigned to a freshly created post, rewin or
// comment.
type IDResponse struct {
	Code Code
	ID   int32
}

func (r *IDResponse) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t.Response())
	f.WriteInt32(int32(r.Code))
	f.WriteInt32(r.ID)
	return f.Seal()
}

func DecodeIDResponse(f *Frame) (r IDResponse, err error) {
	var code int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	r.ID, err = f.ReadInt32()
	return
}

type UserInfo struct {
	Username string
	Tags     []string
}

type UsersResponse struct {
	Code  Code
	Users []UserInfo
}

func (r *UsersResponse) Encode(f *Frame) []byte {
	f.Begin(MsgListUsers.Response())
	f.WriteInt32(int32(r.Code))
	f.WriteInt32(int32(len(r.Users)))
	for _, u := range r.Users {
		f.WriteString(u.Username)
		f.WriteStrings(u.Tags)
	}
	return f.Seal()
}

func DecodeUsersResponse(f *Frame) (r UsersResponse, err error) {
	var code, count int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	if count, err = f.ReadInt32(); err != nil {
		return
	}
	if count < 0 || int(count) > f.Remaining() {
		return r, ErrBadLength
	}
	r.Users = make([]UserInfo, count)
	for n := range r.Users {
		if r.Users[n].Username, err = f.ReadString(); err != nil {
			return
		}
		if r.Users[n].Tags, err = f.ReadStrings(); err != nil {
			return
		}
	}
	return
}

type CommentInfo struct {
	ID        int32
	Owner     string
	Content   string
	Upvotes   int32
	Downvotes int32
	Created   int64
}

type PostInfo struct {
	ID             int32
	Author         string
	Title          string
	Content        string
	Created        int64
	Upvotes        int32
	Downvotes      int32
	Original       int32 // zero when the post is not a rewin
	OriginalAuthor string
	Comments       []CommentInfo
}

type PostResponse struct {
	Code Code
	Post PostInfo
}

func putOptionalID(f *Frame, id int32) {
	if id == 0 {
		f.WriteInt32(Absent)
	} else {
		f.WriteInt32(id)
	}
}

func readOptionalID(f *Frame) (int32, error) {
	id, err := f.ReadInt32()
	if err != nil {
		return 0, err
	}
	if id == Absent {
		return 0, nil
	}
	return id, nil
}

func (r *PostResponse) Encode(f *Frame) []byte {
	f.Begin(MsgShowPost.Response())
	f.WriteInt32(int32(r.Code))
	p := &r.Post
	f.WriteInt32(p.ID)
	f.WriteString(p.Author)
	f.WriteString(p.Title)
	f.WriteString(p.Content)
	f.WriteInt64(p.Created)
	f.WriteInt32(p.Upvotes)
	f.WriteInt32(p.Downvotes)
	putOptionalID(f, p.Original)
	f.WriteString(p.OriginalAuthor)
	f.WriteInt32(int32(len(p.Comments)))
	for _, c := range p.Comments {
		f.WriteInt32(c.ID)
		f.WriteString(c.Owner)
		f.WriteString(c.Content)
		f.WriteInt32(c.Upvotes)
		f.WriteInt32(c.Downvotes)
		f.WriteInt64(c.Created)
	}
	return f.Seal()
}

func DecodePostResponse(f *Frame) (r PostResponse, err error) {
	var code int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	p := &r.Post
	if p.ID, err = f.ReadInt32(); err != nil {
		return
	}
	if p.Author, err = f.ReadString(); err != nil {
		return
	}
	if p.Title, err = f.ReadString(); err != nil {
		return
	}
	if p.Content, err = f.ReadString(); err != nil {
		return
	}
	if p.Created, err = f.ReadInt64(); err != nil {
		return
	}
	if p.Upvotes, err = f.ReadInt32(); err != nil {
		return
	}
	if p.Downvotes, err = f.ReadInt32(); err != nil {
		return
	}
	if p.Original, err = readOptionalID(f); err != nil {
		return
	}
	if p.OriginalAuthor, err = f.ReadString(); err != nil {
		return
	}
	var count int32
	if count, err = f.ReadInt32(); err != nil {
		return
	}
	if count < 0 || int(count) > f.Remaining() {
		return r, ErrBadLength
	}
	p.Comments = make([]CommentInfo, count)
	for n := range p.Comments {
		c := &p.Comments[n]
		if c.ID, err = f.ReadInt32(); err != nil {
			return
		}
		if c.Owner, err = f.ReadString(); err != nil {
			return
		}
		if c.Content, err = f.ReadString(); err != nil {
			return
		}
		if c.Upvotes, err = f.ReadInt32(); err != nil {
			return
		}
		if c.Downvotes, err = f.ReadInt32(); err != nil {
			return
		}
		if c.Created, err = f.ReadInt64(); err != nil {
			return
		}
	}
	return
}

// PostSummary is one line of a feed or blog page.
type PostSummary struct {
	ID       int32
	Author   string
	Title    string
	Original int32 // zero when not a rewin
	Created  int64
}

type PostListResponse struct {
	Code  Code
	Posts []PostSummary
}

func (r *PostListResponse) Encode(f *Frame, t MsgType) []byte {
	f.Begin(t.Response())
	f.WriteInt32(int32(r.Code))
	f.WriteInt32(int32(len(r.Posts)))
	for _, p := range r.Posts {
		f.WriteInt32(p.ID)
		f.WriteString(p.Author)
		f.WriteString(p.Title)
		putOptionalID(f, p.Original)
		f.WriteInt64(p.Created)
	}
	return f.Seal()
}

func DecodePostListResponse(f *Frame) (r PostListResponse, err error) {
	var code, count int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	if count, err = f.ReadInt32(); err != nil {
		return
	}
	if count < 0 || int(count) > f.Remaining() {
		return r, ErrBadLength
	}
	r.Posts = make([]PostSummary, count)
	for n := range r.Posts {
		p := &r.Posts[n]
		if p.ID, err = f.ReadInt32(); err != nil {
			return
		}
		if p.Author, err = f.ReadString(); err != nil {
			return
		}
		if p.Title, err = f.ReadString(); err != nil {
			return
		}
		if p.Original, err = readOptionalID(f); err != nil {
			return
		}
		if p.Created, err = f.ReadInt64(); err != nil {
			return
		}
	}
	return
}

type TransactionInfo struct {
	Amount    float64
	Timestamp int64
}

type WalletResponse struct {
	Code         Code
	Total        float64
	Transactions []TransactionInfo
}

func (r *WalletResponse) Encode(f *Frame) []byte {
	f.Begin(MsgWallet.Response())
	f.WriteInt32(int32(r.Code))
	f.WriteFloat64(r.Total)
	f.WriteInt32(int32(len(r.Transactions)))
	for _, t := range r.Transactions {
		f.WriteFloat64(t.Amount)
		f.WriteInt64(t.Timestamp)
	}
	return f.Seal()
}

func DecodeWalletResponse(f *Frame) (r WalletResponse, err error) {
	var code, count int32
	if code, err = f.ReadInt32(); err != nil {
		return
	}
	r.Code = Code(code)
	if r.Total, err = f.ReadFloat64(); err != nil {
		return
	}
	if count, err = f.ReadInt32(); err != nil {
		return
	}
	if count < 0 || int(count) > f.Remaining() {
		return r, ErrBadLength
	}
	r.Transactions = make([]TransactionInfo, count)
	for n := range r.Transactions {
		if r.Transactions[n].Amount, err = f.ReadFloat64(); err != nil {
			return
		}
		if r.Transactions[n].Timestamp, err = f.ReadInt64(); err != nil {
			return
		}
	}
	return
}
