package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundpass/soundpass/internal/repository"
)

// fakeResumeStore mirrors the Redis repo's consume-on-read behavior.
type fakeResumeStore struct {
	mu        sync.Mutex
	paths     map[string]string
	purchases map[string]repository.PurchaseDraft
}

func newFakeResumeStore() *fakeResumeStore {
	return &fakeResumeStore{paths: map[string]string{}, purchases: map[string]repository.PurchaseDraft{}}
}

func (s *fakeResumeStore) SavePath(_ context.Context, clientID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[clientID] = path
	return nil
}

func (s *fakeResumeStore) LoadPath(_ context.Context, clientID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[clientID]
	if !ok {
		return "", repository.ErrNoResumeState
	}
	delete(s.paths, clientID)
	return path, nil
}

func (s *fakeResumeStore) SavePurchase(_ context.Context, clientID string, draft repository.PurchaseDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[clientID] = draft
	return nil
}

func (s *fakeResumeStore) LoadPurchase(_ context.Context, clientID string) (repository.PurchaseDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.purchases[clientID]
	if !ok {
		return repository.PurchaseDraft{}, repository.ErrNoResumeState
	}
	delete(s.purchases, clientID)
	return draft, nil
}

func resumeCtx(method, target, body, clientID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestResumePathSaveLoadConsumes(t *testing.T) {
	h := NewResumeHandler(newFakeResumeStore())

	c, rec := resumeCtx(http.MethodPut, "/v1/resume/path", `{"path":"/events/3"}`, "client-1")
	require.NoError(t, h.SavePath(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = resumeCtx(http.MethodGet, "/v1/resume/path", "", "client-1")
	require.NoError(t, h.LoadPath(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/events/3", resp["path"])

	// The slot is consumed: a second read finds nothing.
	c, rec = resumeCtx(http.MethodGet, "/v1/resume/path", "", "client-1")
	require.NoError(t, h.LoadPath(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumePathOverwritesPreviousSlot(t *testing.T) {
	h := NewResumeHandler(newFakeResumeStore())

	for _, path := range []string{"/events/1", "/events/2"} {
		c, rec := resumeCtx(http.MethodPut, "/v1/resume/path", `{"path":"`+path+`"}`, "client-1")
		require.NoError(t, h.SavePath(c))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	c, rec := resumeCtx(http.MethodGet, "/v1/resume/path", "", "client-1")
	require.NoError(t, h.LoadPath(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/events/2", resp["path"], "a later save replaces the slot, it does not queue")
}

func TestResumePurchaseRoundTrip(t *testing.T) {
	h := NewResumeHandler(newFakeResumeStore())

	c, rec := resumeCtx(http.MethodPut, "/v1/resume/purchase", `{"event_id":7,"quantity":3}`, "client-2")
	require.NoError(t, h.SavePurchase(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = resumeCtx(http.MethodGet, "/v1/resume/purchase", "", "client-2")
	require.NoError(t, h.LoadPurchase(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var draft repository.PurchaseDraft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	assert.Equal(t, uint64(7), draft.EventID)
	assert.Equal(t, uint8(3), draft.Quantity)
}

func TestResumeStateIsScopedByClient(t *testing.T) {
	h := NewResumeHandler(newFakeResumeStore())

	c, rec := resumeCtx(http.MethodPut, "/v1/resume/path", `{"path":"/checkout"}`, "client-a")
	require.NoError(t, h.SavePath(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = resumeCtx(http.MethodGet, "/v1/resume/path", "", "client-b")
	require.NoError(t, h.LoadPath(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumeRequiresClientID(t *testing.T) {
	h := NewResumeHandler(newFakeResumeStore())
	c, rec := resumeCtx(http.MethodPut, "/v1/resume/path", `{"path":"/x"}`, "")
	require.NoError(t, h.SavePath(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
