// Package rendertest provides an in-memory render.Session for tests.
package rendertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ysmood/gson"

	"grabdoc/internal/render"
)

// Script answers one Eval call.
type Script func(args ...interface{}) (interface{}, error)

// Session is a scriptable fake. Eval looks the script text up in Scripts,
// then Fallback; unknown scripts return null. Results are encoded to JSON
// bytes the way a real page returns them.
type Session struct {
	mu sync.Mutex

	Scripts     map[string]Script
	Fallback    func(js string, args ...interface{}) (interface{}, error)
	OnPageDown  func() error
	OnClick     func(selector string) error
	Shots       func(selector string, vp render.Viewport) ([]byte, error)
	Prints      func(width, height int) ([]byte, error)
	Markup      func() (string, error)
	NavigateErr error

	Visited []string
	Printed [][2]int
	Closed  bool
}

func (s *Session) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visited = append(s.Visited, url)
	return s.NavigateErr
}

func (s *Session) Eval(js string, args ...interface{}) (gson.JSON, error) {
	s.mu.Lock()
	fn, ok := s.Scripts[js]
	fallback := s.Fallback
	s.mu.Unlock()

	var v interface{}
	var err error
	switch {
	case ok:
		v, err = fn(args...)
	case fallback != nil:
		v, err = fallback(js, args...)
	}
	if err != nil {
		return gson.NewFrom("null"), err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return gson.JSON{}, err
	}
	return gson.NewFrom(string(raw)), nil
}

func (s *Session) Click(selector string) error {
	if s.OnClick != nil {
		return s.OnClick(selector)
	}
	return nil
}

func (s *Session) PageDown() error {
	if s.OnPageDown != nil {
		return s.OnPageDown()
	}
	return nil
}

func (s *Session) Screenshot(selector string, vp render.Viewport) ([]byte, error) {
	if s.Shots == nil {
		return nil, fmt.Errorf("no screenshot handler for %s", selector)
	}
	return s.Shots(selector, vp)
}

func (s *Session) PrintPDF(width, height int) ([]byte, error) {
	s.mu.Lock()
	s.Printed = append(s.Printed, [2]int{width, height})
	s.mu.Unlock()
	if s.Prints == nil {
		return []byte("%PDF-1.4\n"), nil
	}
	return s.Prints(width, height)
}

func (s *Session) HTML() (string, error) {
	if s.Markup == nil {
		return "<html></html>", nil
	}
	return s.Markup()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Opener hands out sessions built by New and counts calls.
type Opener struct {
	mu    sync.Mutex
	New   func(url string) (*Session, error)
	Opens []string
	Made  []*Session
}

func (o *Opener) Open(_ context.Context, url string) (render.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Opens = append(o.Opens, url)
	if o.New == nil {
		return nil, fmt.Errorf("%w: no sessions configured", render.ErrUnavailable)
	}
	s, err := o.New(url)
	if err != nil {
		return nil, err
	}
	s.Visited = append(s.Visited, url)
	o.Made = append(o.Made, s)
	return s, nil
}
