package rescache

import (
	"sync"
	"time"

	"danmu/internal/danmaku"
)

// Slot is the in-memory current-episode cache. It holds at most one
// episode's downsampled comment list and is replaced wholesale on every
// episode change.
type Slot struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	titleHash    string
	episodeIndex int
	comments     []danmaku.Comment
	timestamp    time.Time
}

// NewSlot creates an empty slot with the given validity window.
func NewSlot(ttl time.Duration) *Slot {
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	return &Slot{ttl: ttl, episodeIndex: -1, now: time.Now}
}

// Get returns the held comment list when it belongs to the requested title
// and episode and has not aged out.
func (s *Slot) Get(titleHash string, episodeIndex int) ([]danmaku.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comments == nil {
		return nil, false
	}
	if s.titleHash != titleHash || s.episodeIndex != episodeIndex {
		return nil, false
	}
	if s.now().Sub(s.timestamp) >= s.ttl {
		return nil, false
	}
	return s.comments, true
}

// Put replaces the slot contents.
func (s *Slot) Put(titleHash string, episodeIndex int, comments []danmaku.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titleHash = titleHash
	s.episodeIndex = episodeIndex
	s.comments = comments
	s.timestamp = s.now()
}

// Invalidate empties the slot.
func (s *Slot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titleHash = ""
	s.episodeIndex = -1
	s.comments = nil
	s.timestamp = time.Time{}
}
