package store

import (
	"sync"

	"github.com/mahenzon/todo-app/internal/model"
)

type hookSet[T any] struct {
	mu   sync.Mutex
	fns  map[int]func(T)
	next int
}

func (h *hookSet[T]) add(fn func(T)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = map[int]func(T){}
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.fns, id)
	}
}

// emit calls the hooks in registration order.
func (h *hookSet[T]) emit(v T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.fns))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

type hooks struct {
	current *hookSet[*model.TodoList]
	todos   *hookSet[[]model.TodoItem]
}

func newHooks() hooks {
	return hooks{current: &hookSet[*model.TodoList]{}, todos: &hookSet[[]model.TodoItem]{}}
}

// OnCurrentList calls fn with every new current list (nil when deselected).
// The returned func unregisters it.
func (s *Store) OnCurrentList(fn func(*model.TodoList)) (cancel func()) {
	return s.hooks.current.add(fn)
}

// OnTodos calls fn with a copy of the todos after every change.
func (s *Store) OnTodos(fn func([]model.TodoItem)) (cancel func()) {
	return s.hooks.todos.add(fn)
}
