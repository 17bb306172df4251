package chat

import (
	"strings"

	"github.com/rxl895/BrainWave/internal/domain"
)

// SearchCursor walks the ordered matches of one query. Navigation wraps:
// moving past the last match returns to the first, and vice versa.
type SearchCursor struct {
	ids []domain.MessageID
	pos int // -1 before first navigation
}

// Search runs a case-insensitive substring match over the current log.
func (s *Synchronizer) Search(query string) *SearchCursor {
	q := strings.ToLower(query)
	c := &SearchCursor{pos: -1}
	if q == "" {
		return c
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.msg.Content), q) {
			c.ids = append(c.ids, e.msg.ID)
		}
	}
	return c
}

func (c *SearchCursor) Len() int { return len(c.ids) }

// Matches returns the matching ids in log order.
func (c *SearchCursor) Matches() []domain.MessageID {
	out := make([]domain.MessageID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Current returns the match under the cursor, false before any navigation or
// when there are no matches.
func (c *SearchCursor) Current() (domain.MessageID, bool) {
	if c.pos < 0 || len(c.ids) == 0 {
		return "", false
	}
	return c.ids[c.pos], true
}

// Next advances cyclically and returns the new current match.
func (c *SearchCursor) Next() (domain.MessageID, bool) {
	if len(c.ids) == 0 {
		return "", false
	}
	c.pos = (c.pos + 1) % len(c.ids)
	return c.ids[c.pos], true
}

// Prev steps back cyclically and returns the new current match.
func (c *SearchCursor) Prev() (domain.MessageID, bool) {
	if len(c.ids) == 0 {
		return "", false
	}
	if c.pos <= 0 {
		c.pos = len(c.ids) - 1
	} else {
		c.pos--
	}
	return c.ids[c.pos], true
}
