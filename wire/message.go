package wire

// MsgType identifies the logical operation a frame carries. Every request
// type is paired with a response type whose payload opens with an int32
// result code.
type MsgType int32

const (
	MsgUnknown MsgType = iota
	MsgLogin
	MsgLogout
	MsgFollow
	MsgUnfollow
	MsgListUsers
	MsgCreatePost
	MsgDeletePost
	MsgShowPost
	MsgShowFeed
	MsgViewBlog
	MsgRewinPost
	MsgRatePost
	MsgRateComment
	MsgCreateComment
	MsgWallet
)

const responseFlag MsgType = 1 << 8

// Response returns the response type paired with a request type.
func (t MsgType) Response() MsgType {
	return t | responseFlag
}

// IsResponse reports whether the type is on the response side of a pair.
func (t MsgType) IsResponse() bool {
	return t&responseFlag != 0
}

func (t MsgType) String() string {
	base := t &^ responseFlag
	name := "unknown"
	if int(base) < len(msgNames) {
		name = msgNames[base]
	}
	if t.IsResponse() {
		return name + " response"
	}
	return name
}

var msgNames = []string{
	"unknown", "login", "logout", "follow", "unfollow", "list users",
	"create post", "delete post", "show post", "show feed", "view blog",
	"rewin post", "rate post", "rate comment", "create comment", "wallet",
}

// Code is the result code opening every response payload.
type Code int32

const (
	Success Code = iota
	InvalidParameters
	UsernameNotExists
	WrongPassword
	ClientNotLoggedIn
	ClientAlreadyLoggedIn
	UserAlreadyLoggedIn
	UserSelfFollow
	UserNotFollowed
	OriginalPostNotExists
	UserSelfRewin
	NotAuthorized
	UserSelfVote
	UserAlreadyVoted
	PostNotInFeed
	UserSelfComment
	EntityNotExists
	UnknownMessage
	InternalError
)

var codeNames = []string{
	"success", "invalid parameters", "username does not exist",
	"wrong password", "client not logged in", "client already logged in",
	"user already logged in", "cannot follow yourself", "user not followed",
	"original post does not exist", "cannot rewin own post", "not authorized",
	"cannot vote own content", "already voted", "post not in feed",
	"cannot comment own post", "entity does not exist", "unknown message type",
	"internal error",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown code"
}
