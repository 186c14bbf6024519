// Package page implements the Loading/Error/Empty/Ready lifecycle every
// data-backed page goes through.
package page

import (
	"context"
	"reflect"
	"sync"

	"github.com/kalambet/calldash/internal/backend"
)

type State int

const (
	Loading State = iota
	Error
	Empty
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// EmptyState is the title and description shown for a successful fetch
// that returned nothing.
type EmptyState struct {
	Title       string
	Description string
}

var (
	NoIndustries = EmptyState{"No Industries Found", "Please check your API connection and try again."}
	NoCompanies  = EmptyState{"No Companies Found", "No companies found in this sector."}
	NoCalls      = EmptyState{"No Calls Found", "No calls found for this company."}
	CallNotFound = EmptyState{"Call Not Found", "Call transcript not found."}
	NoProfile    = EmptyState{"Profile Not Found", "Your profile could not be loaded."}
)

// Result is what a page renders. Data is meaningful only in Ready.
type Result[T any] struct {
	State   State
	Data    T
	Message string
	Empty   EmptyState

	// Fallback is set when Data is the built-in substitute shown because the
	// fetch failed. Message still carries the failure.
	Fallback bool
}

// Generation identifies one fetch. A resolution carrying anything other
// than the latest generation is dropped.
type Generation uint64

// Controller tracks the state of one page view.
type Controller[T any] struct {
	mu     sync.Mutex
	gen    Generation
	result Result[T]

	empty    EmptyState
	isEmpty  func(T) bool
	fallback func() T
}

type Option[T any] func(*Controller[T])

// WithEmpty sets the empty-state copy.
func WithEmpty[T any](e EmptyState) Option[T] {
	return func(c *Controller[T]) { c.empty = e }
}

// WithFallback substitutes f() for the data when the fetch fails.
func WithFallback[T any](f func() T) Option[T] {
	return func(c *Controller[T]) { c.fallback = f }
}

// WithEmptyFunc overrides how an empty payload is detected.
func WithEmptyFunc[T any](f func(T) bool) Option[T] {
	return func(c *Controller[T]) { c.isEmpty = f }
}

func New[T any](opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{isEmpty: isEmptyValue[T]}
	for _, o := range opts {
		o(c)
	}
	c.result = Result[T]{State: Loading, Empty: c.empty}
	return c
}

// Begin starts a fetch: the controller moves to Loading and the returned
// generation supersedes all earlier ones.
func (c *Controller[T]) Begin() Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	var zero T
	c.result = Result[T]{State: Loading, Data: zero, Empty: c.empty}
	return c.gen
}

// Resolve settles the fetch started at gen. It reports false, and leaves
// the state untouched, when gen is stale.
func (c *Controller[T]) Resolve(gen Generation, data T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}

	r := Result[T]{Empty: c.empty}
	switch {
	case err != nil && c.fallback != nil:
		r.State = Ready
		r.Data = c.fallback()
		r.Fallback = true
		r.Message = backend.UserMessage(err)
	case err != nil:
		r.State = Error
		r.Message = backend.UserMessage(err)
	case c.isEmpty(data):
		r.State = Empty
	default:
		r.State = Ready
		r.Data = data
	}
	c.result = r
	return true
}

// Result returns the current state.
func (c *Controller[T]) Result() Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Load runs fetch as a single generation and returns the settled result.
// If a newer Begin happened meanwhile, the newer state is returned.
func (c *Controller[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) Result[T] {
	gen := c.Begin()
	data, err := fetch(ctx)
	c.Resolve(gen, data, err)
	return c.Result()
}

// Fetch is Load for one-shot use.
func Fetch[T any](ctx context.Context, fetch func(context.Context) (T, error), opts ...Option[T]) Result[T] {
	return New(opts...).Load(ctx, fetch)
}

func isEmptyValue[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
