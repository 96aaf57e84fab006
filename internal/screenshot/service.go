package screenshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
)

// Service manages capture sessions: capturing through the fallback chain, bounding the list
// and dispatching print-quality upgrades.
type Service struct {
	store    StateStore
	chain    *capture.Chain
	upgrader *Upgrader
	limit    int
	logger   *zap.Logger
}

func NewService(store StateStore, chain *capture.Chain, upgrader *Upgrader, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{store: store, chain: chain, upgrader: upgrader, limit: limit, logger: logger}
}

func (s *Service) Limit() int { return s.limit }

func (s *Service) CreateSession(ctx context.Context) (State, error) {
	st := State{
		SessionID:   uuid.NewString(),
		Screenshots: []Screenshot{},
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.Save(ctx, st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (State, error) {
	return s.store.Load(ctx, sessionID)
}

// Capture takes a screenshot for the session and appends it. Anything but a print capture
// gets a background upgrade.
func (s *Service) Capture(ctx context.Context, sessionID string, src capture.FrameSource, req capture.Request) (Screenshot, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Screenshot{}, err
	}
	if len(st.Screenshots) >= s.limit {
		return Screenshot{}, ErrSessionFull
	}

	res, err := s.chain.Capture(ctx, src, req)
	if err != nil {
		return Screenshot{}, err
	}

	shot := Screenshot{
		ID:         uuid.NewString(),
		Image:      res.Image,
		VideoURL:   req.VideoURL,
		Timestamp:  res.Timestamp,
		Quality:    res.Quality,
		Width:      res.Width,
		Height:     res.Height,
		CapturedAt: res.CapturedAt,
		Upgraded:   res.Quality == capture.QualityPrint,
	}

	_, err = s.store.Update(ctx, sessionID, func(st *State) error {
		added, err := st.Add(shot, s.limit)
		if err != nil {
			return err
		}
		shot = added
		return nil
	})
	if err != nil {
		return Screenshot{}, err
	}

	if !shot.Upgraded && req.VideoURL != "" && s.upgrader != nil {
		s.upgrader.Dispatch(ctx, sessionID, shot.ID, capture.Request{
			VideoURL:  req.VideoURL,
			Timestamp: shot.Timestamp,
			PrintDPI:  req.PrintDPI,
			Quality:   capture.QualityPrint,
		})
	}
	return shot, nil
}

func (s *Service) Remove(ctx context.Context, sessionID, screenshotID string) (State, error) {
	return s.store.Update(ctx, sessionID, func(st *State) error {
		return st.Remove(screenshotID)
	})
}

// SetPendingMerch stores the merch selection handed from the capture page to the product page.
func (s *Service) SetPendingMerch(ctx context.Context, sessionID string, merch json.RawMessage) (State, error) {
	return s.store.Update(ctx, sessionID, func(st *State) error {
		st.PendingMerch = merch
		return nil
	})
}

func (s *Service) ClearPendingMerch(ctx context.Context, sessionID string) error {
	_, err := s.store.Update(ctx, sessionID, func(st *State) error {
		st.PendingMerch = nil
		return nil
	})
	return err
}
