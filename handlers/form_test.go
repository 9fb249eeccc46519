package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meela-intake/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) GetFromCache(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCache) SetToCache(ctx context.Context, key, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) DeleteFromCache(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }
func (m *memoryCache) Close() error                   { return nil }

type kafkaMessage struct {
	key   string
	value []byte
}

type fakeKafka struct {
	messages chan kafkaMessage
}

func (f *fakeKafka) Publish(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.messages <- kafkaMessage{key: key, value: data}
	return nil
}

func (f *fakeKafka) Close() error { return nil }

type brokenRepo struct{}

func (brokenRepo) SaveForm(ctx context.Context, form *models.IntakeForm) error {
	return errors.New("connection reset")
}
func (brokenRepo) GetFormByUserID(ctx context.Context, userID string) (*models.IntakeForm, error) {
	return nil, errors.New("connection reset")
}
func (brokenRepo) Ping(ctx context.Context) error { return errors.New("connection reset") }
func (brokenRepo) Close() error                   { return nil }

func newFormRouter(h *FormHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/save-form", h.SaveForm)
	r.POST("/api/load-form", h.LoadForm)
	return r
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSaveForm_MintsUserID(t *testing.T) {
	repo := models.NewMemoryRepository()
	h := NewFormHandler(FormHandlerConfig{Repo: repo})
	h.newID = func() string { return "abc123" }
	r := newFormRouter(h)

	w := postJSON(t, r, "/api/save-form",
		`{"user_id":null,"form_step":1,"email":"x@y.com","therapy_for_whom":"","therapist_gender":""}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"user_id":"abc123"}`, w.Body.String())

	form, err := repo.GetFormByUserID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "x@y.com", form.Email)
	assert.Equal(t, 1, form.FormStep)
}

func TestSaveForm_EmptyUserIDMintsUUID(t *testing.T) {
	h := NewFormHandler(FormHandlerConfig{Repo: models.NewMemoryRepository()})
	r := newFormRouter(h)

	w := postJSON(t, r, "/api/save-form", `{"user_id":"","form_step":1,"email":"","therapy_for_whom":"","therapist_gender":""}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.UserID, 36)
}

func TestSaveForm_UpsertsExisting(t *testing.T) {
	repo := models.NewMemoryRepository()
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: repo}))

	w := postJSON(t, r, "/api/save-form", `{"user_id":"abc123","form_step":1,"email":"x@y.com","therapy_for_whom":"","therapist_gender":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, r, "/api/save-form", `{"user_id":"abc123","form_step":2,"email":"x@y.com","therapy_for_whom":"family","therapist_gender":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"abc123"}`, w.Body.String())

	form, err := repo.GetFormByUserID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, form.FormStep)
	assert.Equal(t, "family", form.TherapyForWhom)
}

func TestSaveForm_RejectsBadStep(t *testing.T) {
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: models.NewMemoryRepository()}))

	for _, body := range []string{
		`{"user_id":null,"form_step":0,"email":""}`,
		`{"user_id":null,"form_step":4,"email":""}`,
		`{"user_id":null,"form_step":"two"}`,
	} {
		w := postJSON(t, r, "/api/save-form", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSaveForm_StorageFailure(t *testing.T) {
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: brokenRepo{}}))

	w := postJSON(t, r, "/api/save-form", `{"user_id":null,"form_step":1,"email":""}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestSaveForm_PublishesEvent(t *testing.T) {
	kafka := &fakeKafka{messages: make(chan kafkaMessage, 1)}
	h := NewFormHandler(FormHandlerConfig{
		Repo:  models.NewMemoryRepository(),
		Kafka: kafka,
	})
	h.newID = func() string { return "abc123" }

	w := postJSON(t, newFormRouter(h), "/api/save-form", `{"user_id":null,"form_step":1,"email":"x@y.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case msg := <-kafka.messages:
		assert.Equal(t, "abc123", msg.key)

		var event models.FormEvent
		require.NoError(t, json.Unmarshal(msg.value, &event))
		assert.Equal(t, models.EventFormCreated, event.Event)
		assert.Equal(t, "x@y.com", event.Data.Email)
	case <-time.After(2 * time.Second):
		t.Fatal("form event was not published")
	}
}

func TestLoadForm_Found(t *testing.T) {
	repo := models.NewMemoryRepository()
	require.NoError(t, repo.SaveForm(context.Background(), &models.IntakeForm{UserID: "abc123", FormStep: 2, Email: "a@b.com"}))
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: repo}))

	w := postJSON(t, r, "/api/load-form", `{"user_id":"abc123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"abc123","form_step":2,"email":"a@b.com","therapy_for_whom":null,"therapist_gender":null}`, w.Body.String())
}

func TestLoadForm_UnknownUser(t *testing.T) {
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: models.NewMemoryRepository()}))

	w := postJSON(t, r, "/api/load-form", `{"user_id":"nobody"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"nobody","form_step":1,"email":null,"therapy_for_whom":null,"therapist_gender":null}`, w.Body.String())
}

func TestLoadForm_MissingUserID(t *testing.T) {
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: models.NewMemoryRepository()}))

	w := postJSON(t, r, "/api/load-form", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadForm_StorageFailure(t *testing.T) {
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: brokenRepo{}}))

	w := postJSON(t, r, "/api/load-form", `{"user_id":"abc123"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoadForm_ServedFromCache(t *testing.T) {
	repo := models.NewMemoryRepository()
	cache := newMemoryCache()
	h := NewFormHandler(FormHandlerConfig{Repo: repo, Cache: cache, CacheTTL: time.Hour})
	r := newFormRouter(h)

	w := postJSON(t, r, "/api/save-form", `{"user_id":"abc123","form_step":3,"email":"x@y.com","therapy_for_whom":"couple","therapist_gender":"female"}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, cached := cache.data[cacheKey("abc123")]
	require.True(t, cached)

	// запись из кэша отдаётся даже без обращения к репозиторию
	h.repo = brokenRepo{}
	w = postJSON(t, r, "/api/load-form", `{"user_id":"abc123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"abc123","form_step":3,"email":"x@y.com","therapy_for_whom":"couple","therapist_gender":"female"}`, w.Body.String())
}

func TestLoadForm_CorruptedCacheFallsBack(t *testing.T) {
	repo := models.NewMemoryRepository()
	require.NoError(t, repo.SaveForm(context.Background(), &models.IntakeForm{UserID: "abc123", FormStep: 1, Email: "a@b.com"}))
	cache := newMemoryCache()
	cache.data[cacheKey("abc123")] = "{not json"
	r := newFormRouter(NewFormHandler(FormHandlerConfig{Repo: repo, Cache: cache, CacheTTL: time.Hour}))

	w := postJSON(t, r, "/api/load-form", `{"user_id":"abc123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@b.com"`)
	assert.NotEqual(t, "{not json", cache.data[cacheKey("abc123")])
}
