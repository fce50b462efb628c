package store

import "github.com/winsomenet/winsome/wire"

// lockPair enters the write scope of two users in lowercase-name order so
// concurrent follow operations can never deadlock against each other.
func lockPair(a, b *User) {
	if key(a.Name) < key(b.Name) {
		a.writeScope()
		b.writeScope()
	} else {
		b.writeScope()
		a.writeScope()
	}
}

func unlockPair(a, b *User) {
	a.writeDone()
	b.writeDone()
}

// Follow records actor following target, updating both follow sets under
// both write scopes so the relation is never observable half-made. A new
// relation triggers a push notification to the target if online; repeating
// an existing follow is a no-op success.
func (s *Store) Follow(actor, target string) wire.Code {
	if key(actor) == key(target) {
		return wire.UserSelfFollow
	}
	s.usersMu.RLock()
	a, aok := s.users[key(actor)]
	t, tok := s.users[key(target)]
	s.usersMu.RUnlock()
	if !aok {
		return wire.ClientNotLoggedIn
	}
	if !tok {
		return wire.UsernameNotExists
	}
	lockPair(a, t)
	_, already := a.Followed[key(target)]
	if !already {
		a.Followed[key(target)] = struct{}{}
		t.Followers[key(actor)] = struct{}{}
	}
	unlockPair(a, t)
	if !already && s.Online(target) {
		s.notify(target, Event{Kind: EventFollow, Actor: a.Name})
	}
	return wire.Success
}

func (s *Store) Unfollow(actor, target string) wire.Code {
	if key(actor) == key(target) {
		return wire.UserSelfFollow
	}
	s.usersMu.RLock()
	a, aok := s.users[key(actor)]
	t, tok := s.users[key(target)]
	s.usersMu.RUnlock()
	if !aok {
		return wire.ClientNotLoggedIn
	}
	if !tok {
		return wire.UsernameNotExists
	}
	lockPair(a, t)
	_, had := a.Followed[key(target)]
	if had {
		delete(a.Followed, key(target))
		delete(t.Followers, key(actor))
	}
	unlockPair(a, t)
	if !had {
		return wire.UserNotFollowed
	}
	if s.Online(target) {
		s.notify(target, Event{Kind: EventUnfollow, Actor: a.Name})
	}
	return wire.Success
}

// Follows reports whether actor currently follows target.
func (s *Store) Follows(actor, target string) bool {
	a := s.user(actor)
	if a == nil {
		return false
	}
	a.readScope()
	defer a.readDone()
	_, ok := a.Followed[key(target)]
	return ok
}

// ListUsers returns every registered user other than the caller sharing at
// least one tag with them.
func (s *Store) ListUsers(actor string) ([]UserView, wire.Code) {
	a := s.user(actor)
	if a == nil {
		return nil, wire.ClientNotLoggedIn
	}
	// Tags are immutable, so the candidate scan needs no entity scopes.
	mine := make(map[string]struct{}, len(a.Tags))
	for _, tag := range a.Tags {
		mine[tag] = struct{}{}
	}
	s.usersMu.RLock()
	candidates := make([]*User, 0, len(s.users))
	for k, u := range s.users {
		if k != key(actor) {
			candidates = append(candidates, u)
		}
	}
	s.usersMu.RUnlock()
	views := make([]UserView, 0)
	for _, u := range candidates {
		for _, tag := range u.Tags {
			if _, ok := mine[tag]; ok {
				views = append(views, u.view())
				break
			}
		}
	}
	return views, wire.Success
}
