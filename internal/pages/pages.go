// Package pages keeps paginated answers alive between requests so callers
// can move through them by session id.
package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fyrsmithlabs/metadex/internal/format"
)

var (
	ErrSessionNotFound = errors.New("page session not found")
	ErrInvalidNav      = errors.New("invalid page navigation")
)

// Nav is a navigation request: first, prev, next, last or a page number.
type Nav struct {
	Kind NavKind
	Page int
}

type NavKind int

const (
	NavCurrent NavKind = iota
	NavFirst
	NavPrev
	NavNext
	NavLast
	NavPage
)

// ParseNav reads a navigation word by its first letter (n, p, f, l) or a
// one-based page number. Empty input keeps the current page.
func ParseNav(s string) (Nav, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Nav{Kind: NavCurrent}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return Nav{}, fmt.Errorf("%w: page %d", ErrInvalidNav, n)
		}
		return Nav{Kind: NavPage, Page: n}, nil
	}
	switch s[0] {
	case 'f':
		return Nav{Kind: NavFirst}, nil
	case 'p':
		return Nav{Kind: NavPrev}, nil
	case 'n':
		return Nav{Kind: NavNext}, nil
	case 'l':
		return Nav{Kind: NavLast}, nil
	}
	return Nav{}, fmt.Errorf("%w: %q", ErrInvalidNav, s)
}

// Session is one paginated answer and the page a caller is looking at.
type Session struct {
	ID    string
	pages []format.Page

	mu      sync.Mutex
	current int
}

// Len is the number of pages.
func (s *Session) Len() int { return len(s.pages) }

// Move applies nav and returns the resulting page. Moves past either end
// stay on the first or last page.
func (s *Session) Move(nav Nav) format.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := len(s.pages) - 1
	switch nav.Kind {
	case NavFirst:
		s.current = 0
	case NavPrev:
		s.current = max(0, s.current-1)
	case NavNext:
		s.current = min(last, s.current+1)
	case NavLast:
		s.current = last
	case NavPage:
		s.current = min(last, max(0, nav.Page-1))
	}
	return s.pages[s.current]
}

// View is what a caller gets back: the session handle and one page.
type View struct {
	SessionID string      `json:"session_id,omitempty"`
	Page      format.Page `json:"page"`
}

// Store holds sessions in a size-bounded LRU whose entries expire.
type Store struct {
	cache *lru.LRU[string, *Session]
}

// NewStore returns a store holding up to size sessions for ttl each.
func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1024
	}
	return &Store{cache: lru.NewLRU[string, *Session](size, nil, ttl)}
}

// Open stores pages and returns the first one. A single page needs no
// session, so its view carries no id.
func (s *Store) Open(pages []format.Page) (View, bool) {
	switch len(pages) {
	case 0:
		return View{}, false
	case 1:
		return View{Page: pages[0]}, true
	}
	sess := &Session{ID: uuid.NewString(), pages: pages}
	s.cache.Add(sess.ID, sess)
	return View{SessionID: sess.ID, Page: pages[0]}, true
}

// Navigate moves within a stored session.
func (s *Store) Navigate(id string, nav Nav) (View, error) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return View{SessionID: id, Page: sess.Move(nav)}, nil
}

// Len is the number of live sessions.
func (s *Store) Len() int { return s.cache.Len() }

// Purge drops every session; pages from an old generation go with them.
func (s *Store) Purge() { s.cache.Purge() }
