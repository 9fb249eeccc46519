package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meela-intake/intake"
	"meela-intake/models"
	"meela-intake/monitoring"
	"meela-intake/utils"
)

// FormHandlerConfig собирает зависимости обработчика. Cache и Kafka необязательны.
type FormHandlerConfig struct {
	Repo     models.Repository
	Cache    utils.RedisClient
	Kafka    utils.KafkaProducer
	CacheTTL time.Duration
	Logger   *zap.Logger
}

type FormHandler struct {
	repo     models.Repository
	cache    utils.RedisClient
	kafka    utils.KafkaProducer
	cacheTTL time.Duration
	logger   *zap.Logger
	newID    func() string
}

func NewFormHandler(cfg FormHandlerConfig) *FormHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormHandler{
		repo:     cfg.Repo,
		cache:    cfg.Cache,
		kafka:    cfg.Kafka,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// SaveForm создаёт анкету (user_id пустой или null) или заменяет существующую.
func (h *FormHandler) SaveForm(c *gin.Context) {
	var req intake.SaveFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := ""
	if req.UserID != nil {
		userID = *req.UserID
	}
	event := models.EventFormUpdated
	if userID == "" {
		userID = h.newID()
		event = models.EventFormCreated
	}

	form := models.NewIntakeForm(userID, req)
	if err := h.repo.SaveForm(c.Request.Context(), form); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save form"})
		return
	}

	if event == models.EventFormCreated {
		monitoring.FormsSaved.WithLabelValues("created").Inc()
	} else {
		monitoring.FormsSaved.WithLabelValues("updated").Inc()
	}

	h.cacheForm(c.Request.Context(), form)

	if h.kafka != nil {
		go h.sendFormEvent(event, *form)
	}

	c.JSON(http.StatusOK, intake.SaveFormResponse{UserID: userID})
}

// LoadForm отдаёт сохранённую анкету. На неизвестный user_id отвечает шагом 1 и пустыми полями.
func (h *FormHandler) LoadForm(c *gin.Context) {
	var req intake.LoadFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	form, ok := h.cachedForm(ctx, req.UserID)
	if !ok {
		var err error
		form, err = h.repo.GetFormByUserID(ctx, req.UserID)
		if errors.Is(err, models.ErrNotFound) {
			monitoring.FormsLoaded.WithLabelValues("unknown").Inc()
			step := intake.FirstStep
			c.JSON(http.StatusOK, intake.LoadFormResponse{
				UserID:   &req.UserID,
				FormStep: &step,
			})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load form"})
			return
		}
		h.cacheForm(ctx, form)
	}

	monitoring.FormsLoaded.WithLabelValues("found").Inc()
	c.JSON(http.StatusOK, form.LoadResponse())
}

func cacheKey(userID string) string {
	return "intake_form:" + userID
}

func (h *FormHandler) cachedForm(ctx context.Context, userID string) (*models.IntakeForm, bool) {
	if h.cache == nil {
		return nil, false
	}

	raw, err := h.cache.GetFromCache(ctx, cacheKey(userID))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("form cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		monitoring.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var form models.IntakeForm
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		h.logger.Warn("corrupted form cache entry", zap.String("user_id", userID), zap.Error(err))
		_ = h.cache.DeleteFromCache(ctx, cacheKey(userID))
		monitoring.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	monitoring.CacheHits.WithLabelValues("hit").Inc()
	return &form, true
}

func (h *FormHandler) cacheForm(ctx context.Context, form *models.IntakeForm) {
	if h.cache == nil {
		return
	}

	data, err := json.Marshal(form)
	if err != nil {
		h.logger.Warn("failed to marshal form for cache", zap.String("user_id", form.UserID), zap.Error(err))
		return
	}
	if err := h.cache.SetToCache(ctx, cacheKey(form.UserID), string(data), h.cacheTTL); err != nil {
		// в кэше не должно остаться прошлой версии анкеты
		h.logger.Warn("failed to cache form", zap.String("user_id", form.UserID), zap.Error(err))
		_ = h.cache.DeleteFromCache(ctx, cacheKey(form.UserID))
	}
}

func (h *FormHandler) sendFormEvent(eventType string, form models.IntakeForm) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := models.FormEvent{Event: eventType, Data: form}
	if err := h.kafka.Publish(ctx, form.UserID, event); err != nil {
		h.logger.Error("failed to send form event",
			zap.String("event", eventType),
			zap.String("user_id", form.UserID),
			zap.Error(err),
		)
	}
}
