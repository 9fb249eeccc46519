package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meela-intake/handlers"
	"meela-intake/intake"
	"meela-intake/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *models.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := models.NewMemoryRepository()
	router := NewRouter(Options{
		Forms:           handlers.NewFormHandler(handlers.FormHandlerConfig{Repo: repo}),
		Search:          handlers.NewSearchHandler(nil, "intake_forms"),
		Health:          handlers.NewHealthHandler(repo, nil),
		Logger:          zap.NewNop(),
		AllowOrigins:    []string{"*"},
		RateLimitPerMin: 1000,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestIntakeFlowAgainstServer(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	page, err := intake.ParsePageURL("https://meela.example/intake")
	require.NoError(t, err)
	ctrl := intake.NewController(intake.NewHTTPBackend(srv.URL), page)

	ctrl.UpdateField(intake.FieldEmail, "x@y.com")
	require.NoError(t, ctrl.Advance(ctx))

	sessionID := ctrl.SessionID()
	require.NotEmpty(t, sessionID)
	assert.Equal(t, 2, ctrl.Step())
	id, ok := page.SessionID()
	require.True(t, ok)
	assert.Equal(t, sessionID, id)

	ctrl.UpdateField(intake.FieldTherapyForWhom, intake.TherapyCouple)
	require.NoError(t, ctrl.Advance(ctx))
	ctrl.UpdateField(intake.FieldTherapistGender, intake.GenderNoPreference)
	require.NoError(t, ctrl.Advance(ctx))
	assert.Equal(t, 3, ctrl.Step())

	form, err := repo.GetFormByUserID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, form.FormStep)
	assert.Equal(t, intake.GenderNoPreference, form.TherapistGender)

	// новая вкладка по той же ссылке
	resumed, err := intake.ParsePageURL(page.String())
	require.NoError(t, err)
	ctrl2 := intake.NewController(intake.NewHTTPBackend(srv.URL), resumed)
	restored, err := ctrl2.Hydrate(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, ctrl.State(), ctrl2.State())
}

func TestHydrateUnknownSessionAgainstServer(t *testing.T) {
	srv, _ := newTestServer(t)

	page, err := intake.ParsePageURL("https://meela.example/intake?userId=forgotten")
	require.NoError(t, err)
	ctrl := intake.NewController(intake.NewHTTPBackend(srv.URL), page)

	restored, err := ctrl.Hydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, 1, ctrl.Step())
	assert.Equal(t, "forgotten", ctrl.SessionID())
}

func TestRouterServices(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/api/forms/search?q=x")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+intake.SaveFormPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://meela.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	cfg := corsConfig([]string{"https://meela.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://meela.example"}, cfg.AllowOrigins)
}
