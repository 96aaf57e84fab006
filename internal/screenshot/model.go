package screenshot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
)

// DefaultLimit is the number of screenshots a session may hold.
const DefaultLimit = 6

var (
	ErrSessionFull     = errors.New("screenshot: session is full")
	ErrNotFound        = errors.New("screenshot: not found")
	ErrSessionNotFound = errors.New("screenshot: session not found")
)

type Screenshot struct {
	ID         string          `json:"id"`
	Index      int             `json:"index"`
	Image      string          `json:"image"`
	VideoURL   string          `json:"video_url,omitempty"`
	Timestamp  float64         `json:"timestamp,omitempty"`
	Quality    capture.Quality `json:"quality"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	CapturedAt time.Time       `json:"captured_at"`
	Upgraded   bool            `json:"upgraded"`
	StorageURL string          `json:"storage_url,omitempty"`
}

// State is everything persisted for one capture session.
type State struct {
	SessionID     string          `json:"session_id"`
	Screenshots   []Screenshot    `json:"screenshots"`
	UpgradeFailed bool            `json:"upgrade_failed"`
	UpgradeError  string          `json:"upgrade_error,omitempty"`
	PendingMerch  json.RawMessage `json:"pending_merch,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Add appends s. The list never grows past limit.
func (st *State) Add(s Screenshot, limit int) (Screenshot, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(st.Screenshots) >= limit {
		return Screenshot{}, ErrSessionFull
	}
	s.Index = len(st.Screenshots)
	st.Screenshots = append(st.Screenshots, s)
	return s, nil
}

func (st *State) Get(id string) (Screenshot, error) {
	for _, s := range st.Screenshots {
		if s.ID == id {
			return s, nil
		}
	}
	return Screenshot{}, ErrNotFound
}

// Replace swaps the entry with the given id for s, keeping its id and position.
func (st *State) Replace(id string, s Screenshot) error {
	for i := range st.Screenshots {
		if st.Screenshots[i].ID == id {
			s.ID = id
			s.Index = i
			st.Screenshots[i] = s
			return nil
		}
	}
	return ErrNotFound
}

func (st *State) Remove(id string) error {
	for i := range st.Screenshots {
		if st.Screenshots[i].ID == id {
			st.Screenshots = append(st.Screenshots[:i], st.Screenshots[i+1:]...)
			for j := i; j < len(st.Screenshots); j++ {
				st.Screenshots[j].Index = j
			}
			return nil
		}
	}
	return ErrNotFound
}
