package intake

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrTransitionInFlight возвращается, если предыдущий переход ещё ждёт ответа бэкенда.
// Повторный вызов ничего не отправляет и шаг не меняет.
var ErrTransitionInFlight = errors.New("intake: transition already in flight")

// Controller ведёт трёхшаговую анкету: текущий шаг, значения полей и идентификатор сессии.
// Ошибки бэкенда не возвращаются вызывающему: пользователь всегда идёт дальше.
type Controller struct {
	backend Backend
	page    SessionLocator
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	inFlight bool
}

type ControllerOption func(*Controller)

func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController создаёт контроллер в начальном состоянии. Если адрес страницы
// уже содержит идентификатор сессии, он становится текущим.
func NewController(backend Backend, page SessionLocator, opts ...ControllerOption) *Controller {
	c := &Controller{
		backend: backend,
		page:    page,
		logger:  zap.NewNop(),
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if id, ok := page.SessionID(); ok {
		c.state.SessionID = id
	}
	return c
}

// State возвращает копию текущего состояния.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Step() int {
	return c.State().Step
}

func (c *Controller) SessionID() string {
	return c.State().SessionID
}

func (c *Controller) Fields() FormFields {
	return c.State().Fields
}

// UpdateField заменяет значение одного поля. Значение не проверяется.
// Работает и во время сетевого вызова.
func (c *Controller) UpdateField(field Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, ok := c.state.Fields.With(field, value)
	if !ok {
		c.logger.Debug("unknown form field ignored", zap.String("field", string(field)))
		return
	}
	c.state.Fields = fields
}

// Advance сохраняет анкету и переходит на следующий шаг (не дальше третьего).
// Первый переход без сессии создаёт её.
func (c *Controller) Advance(ctx context.Context) error {
	snap, err := c.begin()
	if err != nil {
		return err
	}

	var created string
	switch {
	case snap.Step == FirstStep && !snap.HasSession():
		created = c.create(ctx, snap.Fields)
	case snap.HasSession():
		c.save(ctx, snap)
	}

	c.finish(func(s *State) {
		if created != "" {
			s.SessionID = created
			c.page.SetSessionID(created)
		}
		s.Step = min(s.Step+1, LastStep)
	})
	return nil
}

// Retreat сохраняет анкету (если есть сессия) и возвращается на предыдущий шаг (не раньше первого).
func (c *Controller) Retreat(ctx context.Context) error {
	snap, err := c.begin()
	if err != nil {
		return err
	}

	if snap.HasSession() {
		c.save(ctx, snap)
	}

	c.finish(func(s *State) {
		s.Step = max(s.Step-1, FirstStep)
	})
	return nil
}

// Hydrate загружает сохранённую анкету по идентификатору сессии.
// Локальное состояние меняется, только если бэкенд вернул хотя бы одно непустое поле.
func (c *Controller) Hydrate(ctx context.Context) (bool, error) {
	snap, err := c.begin()
	if err != nil {
		return false, err
	}
	if !snap.HasSession() {
		c.finish(nil)
		return false, nil
	}

	resp, err := c.backend.LoadForm(ctx, LoadFormRequest{UserID: snap.SessionID})
	if err != nil {
		c.logger.Warn("load form failed", zap.String("user_id", snap.SessionID), zap.Error(err))
		c.finish(nil)
		return false, nil
	}

	fields := resp.Fields()
	if fields.IsEmpty() {
		c.finish(nil)
		return false, nil
	}

	c.finish(func(s *State) {
		s.Fields = fields
		s.Step = resp.Step()
	})
	return true, nil
}

// Reset возвращает анкету в начальное состояние и убирает идентификатор из адреса страницы.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrTransitionInFlight
	}
	c.state = NewState()
	c.page.ClearSessionID()
	return nil
}

func (c *Controller) begin() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return State{}, ErrTransitionInFlight
	}
	c.inFlight = true
	return c.state, nil
}

func (c *Controller) finish(apply func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if apply != nil {
		apply(&c.state)
	}
	c.inFlight = false
}

func (c *Controller) create(ctx context.Context, fields FormFields) string {
	resp, err := c.backend.SaveForm(ctx, newSaveFormRequest(nil, FirstStep, fields))
	if err != nil {
		c.logger.Warn("create form failed, continuing without session", zap.Error(err))
		return ""
	}
	c.logger.Info("form session created", zap.String("user_id", resp.UserID))
	return resp.UserID
}

func (c *Controller) save(ctx context.Context, snap State) {
	id := snap.SessionID
	if _, err := c.backend.SaveForm(ctx, newSaveFormRequest(&id, snap.Step, snap.Fields)); err != nil {
		c.logger.Warn("save form failed", zap.String("user_id", id), zap.Int("form_step", snap.Step), zap.Error(err))
	}
}
