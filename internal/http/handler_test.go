package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/imaging"
	"github.com/andreasstove999/screenmerch-go/internal/middleware"
	"github.com/andreasstove999/screenmerch-go/internal/screenshot"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

type capturerFunc func(ctx context.Context, req capture.Request) (capture.Result, error)

func (f capturerFunc) Capture(ctx context.Context, req capture.Request) (capture.Result, error) {
	return f(ctx, req)
}

type memoryCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func newMemoryCarts() *memoryCarts { return &memoryCarts{carts: map[string]cart.Cart{}} }

func (m *memoryCarts) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[sessionID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	c.Items = append([]cart.Item(nil), c.Items...)
	return &c, nil
}

func (m *memoryCarts) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	m.carts[c.SessionID] = cp
	return nil
}

func (m *memoryCarts) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type flatQuoter struct{}

func (flatQuoter) Quote(_ context.Context, addr shipping.Address, items []shipping.Item) (shipping.Quote, error) {
	if err := addr.Validate(); err != nil {
		return shipping.Quote{}, err
	}
	if addr.ZIP == "00000" {
		return shipping.Quote{}, errors.Join(shipping.ErrQuoteFailed, errors.New("Invalid ZIP code"))
	}
	return shipping.Quote{Cost: 7.50, Currency: "USD", Source: shipping.SourceRemote}, nil
}

type fakeCheckout struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]checkout.Session
}

func (f *fakeCheckout) CreateSession(ctx context.Context, p checkout.Payload) (checkout.Session, error) {
	if err := p.Validate(); err != nil {
		return checkout.Session{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	subtotal := checkout.Subtotal(p.Items)
	s := checkout.Session{
		ID:           uuid.New(),
		SessionID:    p.SessionID,
		URL:          "https://pay.example/cs",
		Status:       checkout.StatusOpen,
		Subtotal:     subtotal,
		ShippingCost: 7.5,
		Total:        subtotal + 7.5,
		Payload:      p,
	}
	if f.sessions == nil {
		f.sessions = map[uuid.UUID]checkout.Session{}
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeCheckout) Get(_ context.Context, id uuid.UUID) (*checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, checkout.ErrNotFound
	}
	return &s, nil
}

func (f *fakeCheckout) Submit(ctx context.Context, p checkout.Payload) (checkout.SubmitResult, error) {
	s, err := f.CreateSession(ctx, p)
	if err != nil {
		return checkout.SubmitResult{}, err
	}
	return checkout.SubmitResult{SessionID: s.ID.String(), URL: s.URL}, nil
}

type testEnv struct {
	router      http.Handler
	screenshots *screenshot.Service
	carts       *memoryCarts
	checkout    *fakeCheckout
}

func printResult() capture.Result {
	return capture.Result{Image: "data:image/png;base64,AAAA", Quality: capture.QualityPrint, Width: 1920, Height: 1080, CapturedAt: time.Now().UTC()}
}

func newTestEnv(t *testing.T, server capture.Capturer) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	store := screenshot.NewMemoryStore()
	chain := capture.NewChain(server, 300, logger)
	shots := screenshot.NewService(store, chain, nil, 2, logger)

	carts := newMemoryCarts()
	co := &fakeCheckout{}
	assembler := checkout.NewAssembler(flatQuoter{}, co, checkout.NewSessionStateClearer(carts, shots), logger)

	h := NewHandler(Deps{
		Screenshots: shots,
		Capturer:    server,
		Carts:       carts,
		Assembler:   assembler,
		Checkout:    co,
		Quoter:      flatQuoter{},
		Probes: []HealthProbe{
			{Name: "ok", Check: func(context.Context) error { return nil }},
		},
		Logger: logger,
	})
	return &testEnv{
		router:      NewRouter(h, logger, RouterOptions{CORSAllowOrigins: []string{"*"}, RequestTimeout: 5 * time.Second}),
		screenshots: shots,
		carts:       carts,
		checkout:    co,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return imaging.DataURL(imaging.MimePNG, buf.Bytes())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderCorrelationID))

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_FailingProbe(t *testing.T) {
	h := NewHandler(Deps{Probes: []HealthProbe{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}})
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestCaptureScreenshot(t *testing.T) {
	server := capturerFunc(func(ctx context.Context, req capture.Request) (capture.Result, error) {
		if req.VideoURL == "https://cdn.test/broken.mp4" {
			return capture.Result{}, errors.Join(capture.ErrCaptureFailed, errors.New("ffmpeg exited 1"))
		}
		assert.Equal(t, 300, req.PrintDPI)
		return printResult(), nil
	})
	env := newTestEnv(t, server)

	tests := map[string]struct {
		body       any
		wantStatus int
	}{
		"print capture":      {map[string]any{"video_url": "https://cdn.test/v.mp4", "timestamp": 3.5, "print_dpi": 300}, http.StatusOK},
		"missing video url":  {map[string]any{"timestamp": 3.5}, http.StatusBadRequest},
		"unknown quality":    {map[string]any{"video_url": "https://cdn.test/v.mp4", "quality": "ultra"}, http.StatusBadRequest},
		"upstream failure":   {map[string]any{"video_url": "https://cdn.test/broken.mp4", "print_dpi": 300}, http.StatusBadGateway},
		"invalid json":       {"{", http.StatusBadRequest},
		"local video path":   {map[string]any{"video_url": "/etc/hostname", "timestamp": 0}, http.StatusBadRequest},
		"metadata thumbnail": {map[string]any{"quality": "thumbnail", "thumbnail_url": "http://169.254.169.254/latest/meta-data/"}, http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/capture-screenshot", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			out := decode(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, out["success"])
				assert.Equal(t, "data:image/png;base64,AAAA", out["screenshot"])
				assert.Equal(t, float64(1920), out["width"])
				return
			}
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestSessionScreenshots_Lifecycle(t *testing.T) {
	server := capturerFunc(func(ctx context.Context, req capture.Request) (capture.Result, error) {
		return printResult(), nil
	})
	env := newTestEnv(t, server)

	rec := env.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decode(t, rec)["session_id"].(string)

	frame := map[string]any{
		"video_url":      "https://cdn.test/v.mp4",
		"timestamp":      4,
		"frame":          pngDataURL(t, 64, 36),
		"display_width":  32,
		"display_height": 18,
		"ready_state":    4,
	}
	rec = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/screenshots", frame)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode(t, rec)["screenshot"].(map[string]any)
	assert.Equal(t, string(capture.QualityFast), first["quality"])
	assert.Equal(t, float64(32), first["width"])

	// no frame: falls back to the server print capture
	rec = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/screenshots", map[string]any{"video_url": "https://cdn.test/v.mp4", "timestamp": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// the test session holds two screenshots
	rec = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/screenshots", frame)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+sessionID+"/screenshots/"+first["id"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode(t, rec)["session"].(map[string]any)
	shots := sess["screenshots"].([]any)
	require.Len(t, shots, 1)
	assert.Equal(t, float64(0), shots[0].(map[string]any)["index"])

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+sessionID+"/screenshots/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddScreenshot_RejectsLocalSources(t *testing.T) {
	server := capturerFunc(func(ctx context.Context, req capture.Request) (capture.Result, error) {
		t.Errorf("capture reached for %q", req.VideoURL)
		return capture.Result{}, capture.ErrCaptureFailed
	})
	env := newTestEnv(t, server)

	st, err := env.screenshots.CreateSession(context.Background())
	require.NoError(t, err)

	for _, body := range []map[string]any{
		{"video_url": "file:///etc/passwd", "timestamp": 1},
		{"thumbnail_url": "http://169.254.169.254/latest/meta-data/"},
	} {
		rec := env.do(t, http.MethodPost, "/api/sessions/"+st.SessionID+"/screenshots", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	}
}

func TestAddScreenshot_CaptureUnavailable(t *testing.T) {
	server := capturerFunc(func(ctx context.Context, req capture.Request) (capture.Result, error) {
		return capture.Result{}, capture.ErrCaptureFailed
	})
	env := newTestEnv(t, server)

	st, err := env.screenshots.CreateSession(context.Background())
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+st.SessionID+"/screenshots", map[string]any{"video_url": "https://cdn.test/v.mp4"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, float64(3000), out["dismiss_after_ms"])
}

func TestPendingMerch(t *testing.T) {
	env := newTestEnv(t, nil)
	st, err := env.screenshots.CreateSession(context.Background())
	require.NoError(t, err)

	rec := env.do(t, http.MethodPut, "/api/sessions/"+st.SessionID+"/pending-merch", map[string]any{"product_id": "tee", "screenshot_id": "x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, "tee", sess["pending_merch"].(map[string]any)["product_id"])

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+st.SessionID+"/pending-merch", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := env.screenshots.Get(context.Background(), st.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got.PendingMerch)
}

func TestCrop(t *testing.T) {
	env := newTestEnv(t, nil)
	img := pngDataURL(t, 200, 100)

	rec := env.do(t, http.MethodPost, "/api/crop", map[string]any{
		"image":          img,
		"display_width":  100,
		"display_height": 50,
		"crop_area":      map[string]any{"x": 0, "y": 0, "width": 60, "height": 40},
		"gestures": []map[string]any{
			{"type": "down", "x": 30, "y": 20},
			{"type": "move", "x": 40, "y": 25},
			{"type": "up"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	area := out["crop_area"].(map[string]any)
	assert.Equal(t, float64(10), area["x"])
	assert.Equal(t, float64(5), area["y"])
	src := out["source_rect"].(map[string]any)
	assert.Equal(t, float64(20), src["x"])
	assert.Equal(t, float64(10), src["y"])
	assert.Equal(t, float64(120), src["width"])
	assert.Equal(t, float64(80), src["height"])
	assert.True(t, strings.HasPrefix(out["image"].(string), "data:image/png;base64,"))
}

func TestCrop_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	img := pngDataURL(t, 20, 20)

	tests := map[string]struct {
		body any
	}{
		"missing image":   {map[string]any{"display_width": 10, "display_height": 10}},
		"no display size": {map[string]any{"image": img}},
		"bad data url":    {map[string]any{"image": "data:text/plain,hi", "display_width": 10, "display_height": 10}},
		"unknown gesture": {map[string]any{"image": img, "display_width": 10, "display_height": 10, "gestures": []map[string]any{{"type": "pinch"}}}},
		"negative ratio":  {map[string]any{"image": img, "display_width": 10, "display_height": 10, "aspect_ratio": -1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/crop", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

var tee = map[string]any{
	"product":  map[string]any{"id": "tee-1", "name": "Tee", "category": "T-Shirts"},
	"variants": map[string]any{"color": "Black", "size": "M"},
	"price":    10,
	"quantity": 2,
}

var mug = map[string]any{
	"product":  map[string]any{"id": "mug-1", "name": "Mug", "category": "Mugs"},
	"price":    5,
	"quantity": 1,
}

func TestCart_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/cart/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["subtotal"])

	rec = env.do(t, http.MethodPost, "/api/cart/s1/items", tee)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	itemID := decode(t, rec)["item"].(map[string]any)["id"].(string)

	rec = env.do(t, http.MethodPost, "/api/cart/s1/items", mug)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(25), decode(t, rec)["subtotal"])

	rec = env.do(t, http.MethodPatch, "/api/cart/s1/items/"+itemID, map[string]any{
		"toolSettings": map[string]any{"imageOrientation": "landscape", "feather": 3, "cornerRadius": 0, "frame": "yes"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, err := env.carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, c.Items[0].ToolSettings)
	assert.Equal(t, cart.OrientationLandscape, c.Items[0].ToolSettings.ImageOrientation)

	rec = env.do(t, http.MethodPatch, "/api/cart/s1/items/"+itemID, map[string]any{"toolSettings": nil, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	c, err = env.carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, c.Items[0].ToolSettings)
	assert.Equal(t, 3, c.Items[0].Quantity)

	rec = env.do(t, http.MethodPatch, "/api/cart/s1/items/"+itemID, map[string]any{
		"toolSettings": map[string]any{"imageOrientation": "sideways", "frame": "yes"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart/s1/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decode(t, rec)["subtotal"])

	rec = env.do(t, http.MethodDelete, "/api/cart/s1/items/"+itemID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = env.carts.Get(context.Background(), "s1")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCart_InvalidItem(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/cart/s1/items", map[string]any{"product": map[string]any{"id": "x"}, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutCart(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	st, err := env.screenshots.CreateSession(ctx)
	require.NoError(t, err)
	_, err = env.screenshots.SetPendingMerch(ctx, st.SessionID, json.RawMessage(`{"product_id":"tee-1"}`))
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/cart/"+st.SessionID+"/items", tee).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/cart/"+st.SessionID+"/items", mug).Code)

	rec := env.do(t, http.MethodPost, "/api/cart/"+st.SessionID+"/checkout", map[string]any{
		"shipping_address": map[string]any{"zip": "94107", "country_code": "US"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "https://pay.example/cs", out["url"])
	assert.Equal(t, 25.0, out["subtotal"])
	assert.Equal(t, 7.5, out["shipping_cost"])
	assert.Equal(t, 32.5, out["total"])

	_, err = env.carts.Get(ctx, st.SessionID)
	require.ErrorIs(t, err, cart.ErrNotFound, "cart is cleared after checkout")
	got, err := env.screenshots.Get(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got.PendingMerch)
}

func TestCheckoutCart_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/cart/s1/items", tee).Code)

	tests := map[string]struct {
		path       string
		addr       map[string]any
		wantStatus int
		wantError  string
	}{
		"empty cart":        {"/api/cart/empty/checkout", map[string]any{"zip": "94107", "country_code": "US"}, http.StatusBadRequest, ""},
		"missing zip":       {"/api/cart/s1/checkout", map[string]any{"country_code": "US"}, http.StatusBadRequest, "zip"},
		"quote error shown": {"/api/cart/s1/checkout", map[string]any{"zip": "00000", "country_code": "US"}, http.StatusBadGateway, "Invalid ZIP code"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, map[string]any{"shipping_address": tt.addr})
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				assert.Contains(t, decode(t, rec)["error"], tt.wantError)
			}
		})
	}

	_, err := env.carts.Get(context.Background(), "s1")
	require.NoError(t, err, "failed checkouts keep the cart")
}

func TestCalculateShipping(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/calculate-shipping", map[string]any{
		"shipping_address": map[string]any{"zip": "94107", "country_code": "US"},
		"items":            []map[string]any{{"product_id": "tee-1", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "7.50", out["shipping_cost"])
	assert.Equal(t, "USD", out["currency"])

	rec = env.do(t, http.MethodPost, "/api/calculate-shipping", map[string]any{
		"shipping_address": map[string]any{"country_code": "US"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/create-checkout-session", map[string]any{
		"session_id":       "s1",
		"items":            []any{tee},
		"shipping_address": map[string]any{"zip": "94107", "country_code": "US"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "https://pay.example/cs", out["url"])
	id := out["session_id"].(string)

	rec = env.do(t, http.MethodGet, "/api/checkout-sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/checkout-sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/checkout-sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/create-checkout-session", map[string]any{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"session full":       {screenshot.ErrSessionFull, http.StatusConflict},
		"in flight":          {checkout.ErrSubmissionInFlight, http.StatusConflict},
		"not found":          {screenshot.ErrSessionNotFound, http.StatusNotFound},
		"invalid crop":       {imaging.ErrInvalidCrop, http.StatusBadRequest},
		"capture failed":     {capture.ErrCaptureFailed, http.StatusBadGateway},
		"unavailable":        {capture.ErrCaptureUnavailable, http.StatusServiceUnavailable},
		"deadline":           {context.DeadlineExceeded, http.StatusGatewayTimeout},
		"unknown":            {errors.New("boom"), http.StatusInternalServerError},
		"wrapped quote fail": {errors.Join(errors.New("x"), shipping.ErrQuoteFailed), http.StatusBadGateway},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
