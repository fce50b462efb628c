// store owns every entity of the social graph: users, posts, comments,
// sessions and the per-user blog caches. Locking is two-level: a coarse
// RWMutex per collection guards map shape (insert, remove, existence), the
// guard embedded in each entity covers its mutable fields. Coarse locks are
// ordered posts before comments when both are needed; two user guards are
// always taken in lowercase-name order. No lock of either level is ever
// held while a response is serialized or a socket touched.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/winsomenet/winsome/wire"
)

// PageSize is the number of items per feed or blog page.
const PageSize = 5

const (
	maxUsernameLen = 32
	maxTags        = 5
	maxTitleLen    = 50
	maxContentLen  = 500
	maxCommentLen  = 300
)

// Registration happens on the side channel, outside the binary protocol, so
// its failures are errors rather than wire codes.
var (
	ErrUsernameTaken   = errors.New("username already registered")
	ErrInvalidUsername = errors.New("username must be 1-32 characters without spaces")
	ErrInvalidTags     = errors.New("between 1 and 5 tags required")
	ErrEmptyPassword   = errors.New("empty password hash")
)

// EventKind labels a push notification delivered through the side channel.
type EventKind string

const (
	EventFollow   EventKind = "follow"
	EventUnfollow EventKind = "unfollow"
	EventWallet   EventKind = "wallet"
)

type Event struct {
	Kind  EventKind
	Actor string
}

// Notifier delivers out-of-band events to online users. Calls happen with
// no store lock held and failures are the notifier's problem.
type Notifier interface {
	Notify(username string, ev Event)
}

type Store struct {
	usersMu sync.RWMutex
	users   map[string]*User

	postsMu  sync.RWMutex
	posts    map[int32]*Post
	nextPost int32

	commentsMu  sync.RWMutex
	comments    map[int32]*Comment
	nextComment int32

	sessionsMu sync.RWMutex
	sessions   map[string]int64 // lowercase username -> connection id

	notifier Notifier
}

func New() *Store {
	return &Store{
		users:       make(map[string]*User),
		posts:       make(map[int32]*Post),
		comments:    make(map[int32]*Comment),
		sessions:    make(map[string]int64),
		nextPost:    1,
		nextComment: 1,
	}
}

// SetNotifier wires the push-notification collaborator. Called once at
// startup, before any connection is accepted.
func (s *Store) SetNotifier(n Notifier) {
	s.notifier = n
}

func key(username string) string {
	return strings.ToLower(username)
}

func validUsername(name string) bool {
	if len(name) == 0 || len(name) > maxUsernameLen {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func (s *Store) notify(username string, ev Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(username, ev)
}

// Register creates an account. Usernames are unique case-insensitively and
// tags are normalized to lowercase.
func (s *Store) Register(username, hash string, tags []string) error {
	if !validUsername(username) {
		return ErrInvalidUsername
	}
	if hash == "" {
		return ErrEmptyPassword
	}
	if len(tags) == 0 || len(tags) > maxTags {
		return ErrInvalidTags
	}
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{})
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return ErrInvalidTags
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	user := &User{
		Name:      username,
		Hash:      hash,
		Tags:      normalized,
		Followed:  make(map[string]struct{}),
		Followers: make(map[string]struct{}),
	}
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if _, ok := s.users[key(username)]; ok {
		return ErrUsernameTaken
	}
	s.users[key(username)] = user
	return nil
}

// Login binds a username to a connection. At most one live session per
// username; the hash is compared verbatim against the stored one.
func (s *Store) Login(username, hash string, conn int64) wire.Code {
	s.usersMu.RLock()
	user, ok := s.users[key(username)]
	s.usersMu.RUnlock()
	if !ok {
		return wire.UsernameNotExists
	}
	// Hash is immutable after registration, no scope needed.
	if user.Hash != hash {
		return wire.WrongPassword
	}
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if _, ok := s.sessions[key(username)]; ok {
		return wire.UserAlreadyLoggedIn
	}
	s.sessions[key(username)] = conn
	return wire.Success
}

// Logout revokes the session only if it still belongs to the given
// connection, so a stale teardown cannot kick out a fresh login.
func (s *Store) Logout(username string, conn int64) wire.Code {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if owner, ok := s.sessions[key(username)]; !ok || owner != conn {
		return wire.ClientNotLoggedIn
	}
	delete(s.sessions, key(username))
	return wire.Success
}

// Online reports whether the user currently holds a session.
func (s *Store) Online(username string) bool {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	_, ok := s.sessions[key(username)]
	return ok
}

func (s *Store) user(username string) *User {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	return s.users[key(username)]
}

// Exists reports whether the username is registered, in any case form.
func (s *Store) Exists(username string) bool {
	return s.user(username) != nil
}

func (s *Store) now() time.Time {
	return time.Now()
}
