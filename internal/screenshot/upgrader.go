package screenshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
	"github.com/andreasstove999/screenmerch-go/internal/imaging"
)

// DefaultUpgradeTimeout bounds one print-quality upgrade.
const DefaultUpgradeTimeout = 60 * time.Second

const storeTimeout = 5 * time.Second

var (
	ErrUpgradeTimeout = errors.New("screenshot: print-quality upgrade timed out")
	ErrUpgradeFailed  = errors.New("screenshot: print-quality upgrade failed")
)

// ObjectStore uploads an encoded screenshot and returns its public url.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// UpgradeOutcome describes a finished upgrade attempt.
type UpgradeOutcome struct {
	SessionID    string
	ScreenshotID string
	VideoURL     string
	Timestamp    float64
	Succeeded    bool
	Reason       string
	StorageURL   string
	FinishedAt   time.Time
}

type UpgradeNotifier interface {
	PublishScreenshotUpgraded(ctx context.Context, o UpgradeOutcome) error
}

type UpgraderOptions struct {
	Timeout  time.Duration
	Objects  ObjectStore
	Notifier UpgradeNotifier
}

// Upgrader replaces fast captures with print-quality renders in the background.
type Upgrader struct {
	capturer capture.Capturer
	store    StateStore
	objects  ObjectStore
	notifier UpgradeNotifier
	timeout  time.Duration
	logger   *zap.Logger

	wg sync.WaitGroup
}

func NewUpgrader(capturer capture.Capturer, store StateStore, logger *zap.Logger, opts UpgraderOptions) *Upgrader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultUpgradeTimeout
	}
	return &Upgrader{
		capturer: capturer,
		store:    store,
		objects:  opts.Objects,
		notifier: opts.Notifier,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Dispatch starts an upgrade of screenshotID and returns immediately. Values carried by ctx
// (correlation id) are kept, its cancellation is not.
func (u *Upgrader) Dispatch(ctx context.Context, sessionID, screenshotID string, req capture.Request) {
	base := context.WithoutCancel(ctx)
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.run(base, sessionID, screenshotID, req)
	}()
}

// Wait blocks until every dispatched upgrade has finished.
func (u *Upgrader) Wait() {
	u.wg.Wait()
}

func (u *Upgrader) run(base context.Context, sessionID, screenshotID string, req capture.Request) {
	log := u.logger.With(
		zap.String("session_id", sessionID),
		zap.String("screenshot_id", screenshotID),
		zap.String("video_url", req.VideoURL),
		zap.Float64("timestamp", req.Timestamp),
	)
	outcome := UpgradeOutcome{
		SessionID:    sessionID,
		ScreenshotID: screenshotID,
		VideoURL:     req.VideoURL,
		Timestamp:    req.Timestamp,
	}

	ctx, cancel := context.WithTimeout(base, u.timeout)
	res, err := u.capturer.Capture(ctx, req)
	cancel()

	if err != nil {
		cause := classifyUpgradeError(err)
		log.Warn("print-quality upgrade failed, keeping fast capture", zap.Error(cause))
		outcome.Reason = cause.Error()
		u.markFailed(base, sessionID, cause, log)
		u.notify(base, outcome, log)
		return
	}

	var storageURL string
	if u.objects != nil {
		storageURL = u.upload(base, sessionID, screenshotID, res.Image, log)
	}

	storeCtx, storeCancel := context.WithTimeout(base, storeTimeout)
	defer storeCancel()

	_, err = u.store.Update(storeCtx, sessionID, func(st *State) error {
		cur, err := st.Get(screenshotID)
		if err != nil {
			return err
		}
		cur.Image = res.Image
		cur.Quality = res.Quality
		cur.Width, cur.Height = res.Width, res.Height
		cur.CapturedAt = res.CapturedAt
		cur.Upgraded = true
		if storageURL != "" {
			cur.StorageURL = storageURL
		}
		if err := st.Replace(screenshotID, cur); err != nil {
			return err
		}
		st.UpgradeFailed = false
		st.UpgradeError = ""
		return nil
	})
	if err != nil {
		// the screenshot or session may have been removed while the render ran
		log.Warn("could not apply print-quality upgrade", zap.Error(err))
		outcome.Reason = err.Error()
		u.notify(base, outcome, log)
		return
	}

	log.Info("print-quality upgrade applied", zap.Int("width", res.Width), zap.Int("height", res.Height))
	outcome.Succeeded = true
	outcome.StorageURL = storageURL
	u.notify(base, outcome, log)
}

func (u *Upgrader) markFailed(base context.Context, sessionID string, cause error, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(base, storeTimeout)
	defer cancel()

	_, err := u.store.Update(ctx, sessionID, func(st *State) error {
		st.UpgradeFailed = true
		st.UpgradeError = cause.Error()
		return nil
	})
	if err != nil {
		log.Warn("could not record upgrade failure", zap.Error(err))
	}
}

func (u *Upgrader) upload(base context.Context, sessionID, screenshotID, dataURL string, log *zap.Logger) string {
	raw, mime, err := imaging.DataURLBytes(dataURL)
	if err != nil {
		log.Warn("upgraded screenshot is not a data url, skipping upload", zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(base, u.timeout)
	defer cancel()

	key := fmt.Sprintf("screenshots/%s/%s%s", sessionID, screenshotID, extensionFor(mime))
	url, err := u.objects.PutObject(ctx, key, mime, raw)
	if err != nil {
		log.Warn("screenshot upload failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (u *Upgrader) notify(base context.Context, o UpgradeOutcome, log *zap.Logger) {
	if u.notifier == nil {
		return
	}
	o.FinishedAt = time.Now().UTC()
	if err := u.notifier.PublishScreenshotUpgraded(base, o); err != nil {
		log.Warn("publish ScreenshotUpgraded failed", zap.Error(err))
	}
}

// classifyUpgradeError separates an expired deadline from any other failure.
func classifyUpgradeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpgradeTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpgradeFailed, err)
}

func extensionFor(mime string) string {
	switch mime {
	case imaging.MimePNG:
		return ".png"
	case imaging.MimeJPEG:
		return ".jpg"
	default:
		return ""
	}
}
