// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/greenery-survey/auth"
	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/models"
	"github.com/danielhkuo/greenery-survey/pool"
	"github.com/danielhkuo/greenery-survey/store"
	"github.com/danielhkuo/greenery-survey/survey"
	"github.com/danielhkuo/greenery-survey/testutil"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type saverFunc func(ctx context.Context, p models.Payload) error

func (f saverFunc) Save(ctx context.Context, p models.Payload) error { return f(ctx, p) }

type testEnv struct {
	cfg   cliparse.Config
	clk   *clock.Fake
	reg   *Registry
	h     *SessionHandler
	store *store.MemoryStore
}

func newTestEnv(t *testing.T, images int, saver survey.Saver) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	mem := store.NewMemoryStore()
	if saver == nil {
		saver = mem
	}
	clk := clock.NewFake(t0)
	reg := NewRegistry(saver, time.Second, clk)
	manifest := pool.Manifest{Images: testutil.TestImages(images)}

	return &testEnv{
		cfg:   cfg,
		clk:   clk,
		reg:   reg,
		h:     NewSessionHandler(reg, cfg, manifest),
		store: mem,
	}
}

// call invokes fn with path values given as name, value pairs
func (e *testEnv) call(fn http.HandlerFunc, method, path string, body interface{}, token string, pathValues ...string) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers[TokenHeader] = token
	}
	req := testutil.MakeRequest(method, path, body, headers)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func (e *testEnv) start(t *testing.T) (string, string, models.SessionState) {
	t.Helper()

	w := e.call(e.h.StartSession, "POST", "/sessions", nil, "")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.StartSessionResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.State.SessionID, resp.Token, resp.State
}

func (e *testEnv) input(t *testing.T, fn http.HandlerFunc, id, token string, body interface{}, pathValues ...string) models.InputResponse {
	t.Helper()

	w := e.call(fn, "POST", "/sessions/"+id, body, token, append([]string{"id", id}, pathValues...)...)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.InputResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func (e *testEnv) key(t *testing.T, id, token, key string) models.InputResponse {
	t.Helper()
	return e.input(t, e.h.Key, id, token, models.KeyRequest{Key: key})
}

func (e *testEnv) loaded(t *testing.T, id, token, unitID string) models.InputResponse {
	t.Helper()
	return e.input(t, e.h.ImageLoaded, id, token, nil, "unit", unitID)
}

func (e *testEnv) get(t *testing.T, id, token string) models.SessionState {
	t.Helper()

	w := e.call(e.h.GetSession, "GET", "/sessions/"+id, nil, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusOK)

	var st models.SessionState
	testutil.AssertJSON(t, w, &st)
	return st
}

func TestStartSession(t *testing.T) {
	e := newTestEnv(t, 5, nil)

	id, token, st := e.start(t)

	assert.NotEmpty(t, id)
	assert.Equal(t, auth.GenerateSessionToken(id, e.cfg.SessionSalt), token)
	assert.Equal(t, models.PhaseAwaitingRatings, st.Phase)
	assert.Equal(t, []string{"green", "pleasant"}, st.FieldOrder)
	require.NotNil(t, st.Active)
	assert.Equal(t, "images/img-000.jpg", st.Active.ImageRef)
	assert.Equal(t, models.StatusActive, st.Active.Status)
	assert.Equal(t, []string{"images/img-001.jpg", "images/img-002.jpg"}, st.Preload)
	assert.Equal(t, 100, st.Cap)
	assert.Equal(t, 1, e.reg.Len())
}

func TestStartSession_Errors(t *testing.T) {
	t.Run("invalid order override", func(t *testing.T) {
		e := newTestEnv(t, 5, nil)
		w := e.call(e.h.StartSession, "POST", "/sessions", models.StartSessionRequest{RatingOrder: "sideways"}, "")
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		e := newTestEnv(t, 5, nil)
		w := e.call(e.h.StartSession, "POST", "/sessions", map[string]int{"surprise": 1}, "")
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("no images", func(t *testing.T) {
		e := newTestEnv(t, 0, nil)
		w := e.call(e.h.StartSession, "POST", "/sessions", nil, "")
		testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
		assert.Equal(t, 0, e.reg.Len())
	})
}

func TestStartSession_OrderOverride(t *testing.T) {
	e := newTestEnv(t, 5, nil)

	w := e.call(e.h.StartSession, "POST", "/sessions", models.StartSessionRequest{RatingOrder: "PG"}, "")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.StartSessionResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, []string{"pleasant", "green"}, resp.State.FieldOrder)

	// Pleasant fills first under PG
	got := e.key(t, resp.State.SessionID, resp.Token, "7")
	assert.True(t, got.Applied)
	assert.Equal(t, map[string]int{"pleasant": 7}, got.State.Active.Ratings)
}

func TestSessionAuth(t *testing.T) {
	e := newTestEnv(t, 5, nil)
	id, token, _ := e.start(t)

	tests := []struct {
		name   string
		id     string
		token  string
		status int
	}{
		{"valid token", id, token, http.StatusOK},
		{"missing token", id, "", http.StatusUnauthorized},
		{"wrong token", id, "nope", http.StatusUnauthorized},
		{"token for another session", id, auth.GenerateSessionToken("other", e.cfg.SessionSalt), http.StatusUnauthorized},
		{"unknown session", "missing", auth.GenerateSessionToken("missing", e.cfg.SessionSalt), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.call(e.h.GetSession, "GET", "/sessions/"+tt.id, nil, tt.token, "id", tt.id)
			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestSessionFlow_SavesOnExhaustion(t *testing.T) {
	e := newTestEnv(t, 2, nil)
	id, token, st := e.start(t)
	first := st.Active.ID

	e.loaded(t, id, token, first)
	e.key(t, id, token, "3")
	got := e.key(t, id, token, "5")
	assert.Equal(t, models.PhaseDwelling, got.State.Phase)
	assert.Equal(t, first, got.State.Active.ID)

	e.clk.Advance(2 * time.Second)

	st = e.get(t, id, token)
	require.NotNil(t, st.Active)
	second := st.Active.ID
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, st.CompletedCount)

	e.loaded(t, id, token, second)
	e.key(t, id, token, "1")
	got = e.key(t, id, token, "0")
	assert.Equal(t, 10, got.State.Active.Ratings["green"])
	e.key(t, id, token, "7")

	e.clk.Advance(2 * time.Second)
	e.reg.Wait()

	st = e.get(t, id, token)
	assert.Equal(t, models.PhaseExhausted, st.Phase)
	assert.Equal(t, models.EndExhausted, st.EndReason)
	assert.Nil(t, st.Active)
	require.NotNil(t, st.Save)
	assert.True(t, st.Save.Success)
	assert.Equal(t, auth.CompletionCode(id, e.cfg.SessionSalt), st.CompletionCode)

	p, ok := e.store.Get(id)
	require.True(t, ok)
	require.Len(t, p.Records, 2)
	assert.Equal(t, 3, p.Records[0].Green)
	assert.Equal(t, 5, p.Records[0].Pleasant)
	assert.Equal(t, int64(2000), p.Records[0].ViewedMs)
	assert.Equal(t, 10, p.Records[1].Green)
	assert.Equal(t, 7, p.Records[1].Pleasant)
	assert.Equal(t, 2, p.Metadata.CompletedCount)
	// 3, 5, then 1 upgraded to 10, then 7
	assert.Equal(t, 5, p.Metadata.RatingChanges)
	assert.Equal(t, "GP", p.Metadata.RatingOrder)
	assert.Equal(t, auth.HashIP("192.0.2.1", e.cfg.IPSalt), p.Metadata.IPHash)

	// Input after the end is dropped
	assert.False(t, e.key(t, id, token, "4").Applied)
}

func TestSubmit_Resubmission(t *testing.T) {
	var calls atomic.Int32
	flaky := saverFunc(func(ctx context.Context, p models.Payload) error {
		if calls.Add(1) == 1 {
			return errors.New("connection refused")
		}
		return nil
	})

	e := newTestEnv(t, 1, flaky)
	id, token, st := e.start(t)

	// Nothing to resubmit yet
	w := e.call(e.h.Submit, "POST", "/sessions/"+id+"/submit", nil, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusConflict)

	e.loaded(t, id, token, st.Active.ID)
	e.key(t, id, token, "4")
	e.key(t, id, token, "4")
	e.clk.Advance(2 * time.Second)
	e.reg.Wait()

	st = e.get(t, id, token)
	require.NotNil(t, st.Save)
	assert.False(t, st.Save.Success)
	assert.Equal(t, "connection refused", st.Save.Error)
	assert.Empty(t, st.CompletionCode)

	w = e.call(e.h.Submit, "POST", "/sessions/"+id+"/submit", nil, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &st)
	assert.True(t, st.Save.Success)
	assert.NotEmpty(t, st.CompletionCode)

	w = e.call(e.h.Submit, "POST", "/sessions/"+id+"/submit", nil, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusConflict)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRate(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	id, token, _ := e.start(t)

	five, nine := 5, 9
	tests := []struct {
		name    string
		req     models.RateRequest
		applied bool
	}{
		{"pleasant before green", models.RateRequest{Field: "pleasant", Value: &five}, true},
		{"out of range", models.RateRequest{Field: "pleasant", Value: &nine}, false},
		{"unknown field", models.RateRequest{Field: "blue", Value: &five}, false},
		{"green", models.RateRequest{Field: "green", Value: &nine}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.input(t, e.h.Rate, id, token, tt.req)
			assert.Equal(t, tt.applied, got.Applied)
		})
	}

	st := e.get(t, id, token)
	assert.Equal(t, map[string]int{"green": 9, "pleasant": 5}, st.Active.Ratings)
	// Not loaded yet, so the advance waits for the load signal
	assert.Equal(t, models.PhaseAwaitingLoad, st.Phase)

	w := e.call(e.h.Rate, "POST", "/sessions/"+id+"/ratings", models.RateRequest{Field: "green"}, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestImageLoaded(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	id, token, st := e.start(t)
	unitID := st.Active.ID

	t.Run("unknown unit", func(t *testing.T) {
		w := e.call(e.h.ImageLoaded, "POST", "/sessions/"+id+"/units/x/loaded", nil, token, "id", id, "unit", "x")
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("future timestamp replaced by server time", func(t *testing.T) {
		future := t0.Add(time.Hour)
		got := e.input(t, e.h.ImageLoaded, id, token, models.ImageLoadedRequest{LoadedAt: &future}, "unit", unitID)
		require.NotNil(t, got.State.Active.LoadedAt)
		assert.True(t, got.State.Active.LoadedAt.Equal(t0))
	})

	t.Run("second signal ignored", func(t *testing.T) {
		e.clk.Advance(time.Second)
		got := e.loaded(t, id, token, unitID)
		assert.True(t, got.State.Active.LoadedAt.Equal(t0))
	})
}

func TestImageLoaded_ClientTimestamp(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	e.clk.Advance(time.Second)
	id, token, st := e.start(t)
	e.clk.Advance(500 * time.Millisecond)

	before := t0
	got := e.input(t, e.h.ImageLoaded, id, token, models.ImageLoadedRequest{LoadedAt: &before}, "unit", st.Active.ID)
	// Earlier than the session start, so server time wins
	assert.True(t, got.State.Active.LoadedAt.Equal(t0.Add(1500*time.Millisecond)))

	id, token, st = e.start(t)
	e.clk.Advance(300 * time.Millisecond)
	onload := t0.Add(1600 * time.Millisecond)
	got = e.input(t, e.h.ImageLoaded, id, token, models.ImageLoadedRequest{LoadedAt: &onload}, "unit", st.Active.ID)
	assert.True(t, got.State.Active.LoadedAt.Equal(onload))
}

func TestImageLoaded_BackdatedLaterUnit(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	id, token, st := e.start(t)
	first := st.Active.ID

	e.loaded(t, id, token, first)
	e.key(t, id, token, "5")
	e.key(t, id, token, "5")
	e.clk.Advance(5 * time.Second)

	next := e.get(t, id, token)
	require.NotNil(t, next.Active)
	require.NotEqual(t, first, next.Active.ID)

	// After the session start but before this unit was shown
	backdated := t0
	got := e.input(t, e.h.ImageLoaded, id, token, models.ImageLoadedRequest{LoadedAt: &backdated}, "unit", next.Active.ID)
	require.NotNil(t, got.State.Active.LoadedAt)
	assert.True(t, got.State.Active.LoadedAt.Equal(t0.Add(5*time.Second)))

	e.key(t, id, token, "5")
	got = e.key(t, id, token, "5")
	assert.Equal(t, next.Active.ID, got.State.Active.ID)
	assert.Equal(t, models.PhaseDwelling, got.State.Phase)
	assert.Equal(t, 1, got.State.CompletedCount)

	e.clk.Advance(e.cfg.MinDwell)
	assert.Equal(t, 2, e.get(t, id, token).CompletedCount)
}

func TestBackForward(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	id, token, st := e.start(t)

	e.loaded(t, id, token, st.Active.ID)
	e.key(t, id, token, "2")
	e.key(t, id, token, "6")
	e.clk.Advance(2 * time.Second)

	got := e.input(t, e.h.Back, id, token, nil)
	assert.True(t, got.Applied)
	assert.Equal(t, 0, got.State.Position)
	assert.Equal(t, models.PhaseReviewing, got.State.Phase)
	assert.Equal(t, map[string]int{"green": 2, "pleasant": 6}, got.State.Active.Ratings)

	// Already at the first unit
	assert.False(t, e.input(t, e.h.Back, id, token, nil).Applied)

	got = e.input(t, e.h.Forward, id, token, nil)
	assert.True(t, got.Applied)
	assert.Equal(t, 1, got.State.Position)

	// The second unit was never completed
	assert.False(t, e.input(t, e.h.Forward, id, token, nil).Applied)
}

func TestRegistrySweep(t *testing.T) {
	e := newTestEnv(t, 3, nil)
	idle, _, _ := e.start(t)

	e.clk.Advance(10 * time.Minute)
	active, token, _ := e.start(t)
	e.get(t, active, token)

	assert.Equal(t, 1, e.reg.Sweep(5*time.Minute))
	assert.Equal(t, 1, e.reg.Len())

	_, err := e.reg.Get(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryClose_LateEndNotSaved(t *testing.T) {
	e := newTestEnv(t, 1, nil)
	id, token, st := e.start(t)

	e.loaded(t, id, token, st.Active.ID)
	e.key(t, id, token, "4")
	e.key(t, id, token, "4")

	// The dwell timer is still pending when the server stops
	e.reg.Close()
	e.clk.Advance(2 * time.Second)
	e.reg.Wait()

	got := e.get(t, id, token)
	assert.Equal(t, models.EndExhausted, got.EndReason)
	require.NotNil(t, got.Save)
	assert.False(t, got.Save.Success)
	assert.False(t, got.Save.Pending)
	assert.Equal(t, ErrRegistryClosed.Error(), got.Save.Error)
	assert.Empty(t, got.CompletionCode)

	_, ok := e.store.Get(id)
	assert.False(t, ok)

	_, err := e.reg.Resubmit(id)
	assert.ErrorIs(t, err, ErrRegistryClosed)

	w := e.call(e.h.Submit, "POST", "/sessions/"+id+"/submit", nil, token, "id", id)
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
}

func TestGetConfig(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.Lexicon = "VEG"
	h := NewConfigHandler(cfg)

	req := httptest.NewRequest("GET", "/config", nil)
	w := httptest.NewRecorder()
	h.GetConfig(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ConfigResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, []string{"green", "pleasant"}, resp.FieldOrder)
	assert.Equal(t, "VEG", resp.LexiconVariant)
	assert.Equal(t, "Vegetation", resp.Scales["green"].Label)
	assert.Equal(t, "Click the image to start rating", resp.TapToRate)
	assert.Equal(t, int64(2000), resp.MinDwellMs)
	assert.Equal(t, int64(800), resp.ArmWindowMs)
	assert.Equal(t, 100, resp.MaxImages)
	assert.Equal(t, "reopen", resp.RevisitPolicy)
}
