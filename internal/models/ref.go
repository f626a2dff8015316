package models

import "fmt"

// Ref is a to-one association that is either fetched (value attached) or
// not yet fetched (resolved through load on first Get). A Ref with neither
// fails with ErrNotLoaded instead of returning a zero value.
type Ref[T any] struct {
	ID    int64
	value *T
	load  func() (*T, error)
}

// Resolved returns a reference whose target is already in memory.
func Resolved[T any](id int64, v *T) Ref[T] {
	return Ref[T]{ID: id, value: v}
}

// Deferred returns a reference fetched by load on first access.
func Deferred[T any](id int64, load func() (*T, error)) Ref[T] {
	return Ref[T]{ID: id, load: load}
}

// Detached returns a reference that only knows its target id.
func Detached[T any](id int64) Ref[T] {
	return Ref[T]{ID: id}
}

func (r *Ref[T]) Get() (*T, error) {
	if r.value != nil {
		return r.value, nil
	}
	if r.load == nil {
		return nil, fmt.Errorf("%T %d: %w", r.value, r.ID, ErrNotLoaded)
	}

	v, err := r.load()
	if err != nil {
		return nil, err
	}
	r.value = v
	r.load = nil
	return v, nil
}

func (r *Ref[T]) Loaded() bool {
	return r.value != nil
}

// Collection is the to-many counterpart of Ref.
type Collection[T any] struct {
	items  []T
	loaded bool
	load   func() ([]T, error)
}

func ResolvedCollection[T any](items []T) Collection[T] {
	return Collection[T]{items: items, loaded: true}
}

func DeferredCollection[T any](load func() ([]T, error)) Collection[T] {
	return Collection[T]{load: load}
}

func (c *Collection[T]) Get() ([]T, error) {
	if c.loaded {
		return c.items, nil
	}
	if c.load == nil {
		return nil, fmt.Errorf("collection: %w", ErrNotLoaded)
	}

	items, err := c.load()
	if err != nil {
		return nil, err
	}
	c.items = items
	c.loaded = true
	c.load = nil
	return items, nil
}

// Set attaches an already fetched collection, replacing any pending loader.
func (c *Collection[T]) Set(items []T) {
	c.items = items
	c.loaded = true
	c.load = nil
}

func (c *Collection[T]) Loaded() bool {
	return c.loaded
}
