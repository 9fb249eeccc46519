package intake

import (
	"fmt"
	"net/url"
	"sync"
)

// SessionQueryParam хранит идентификатор сессии в адресе страницы.
const SessionQueryParam = "userId"

// SessionLocator читает и меняет идентификатор сессии в адресной строке.
type SessionLocator interface {
	SessionID() (string, bool)
	SetSessionID(id string)
	ClearSessionID()
}

// PageURL хранит адрес страницы и историю его изменений.
type PageURL struct {
	mu      sync.RWMutex
	current *url.URL
	history []string
}

func ParsePageURL(raw string) (*PageURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	return &PageURL{current: u, history: []string{u.String()}}, nil
}

func (p *PageURL) SessionID() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id := p.current.Query().Get(SessionQueryParam)
	return id, id != ""
}

func (p *PageURL) SetSessionID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := p.current.Query()
	q.Set(SessionQueryParam, id)
	p.push(q)
}

func (p *PageURL) ClearSessionID() {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := p.current.Query()
	if !q.Has(SessionQueryParam) {
		return
	}
	q.Del(SessionQueryParam)
	p.push(q)
}

func (p *PageURL) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.String()
}

// History возвращает все адреса страницы, начиная с исходного.
func (p *PageURL) History() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.history...)
}

func (p *PageURL) push(q url.Values) {
	next := *p.current
	next.RawQuery = q.Encode()
	p.current = &next
	p.history = append(p.history, next.String())
}
