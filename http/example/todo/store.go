package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var errNotFound = errors.New("todo not found")

// A Todo is a single item on the list.
type Todo struct {
	ID    int
	Title string
	Done  bool
}

// store keeps Todos in memory.
type store struct {
	mu     sync.Mutex
	nextID int
	todos  map[int]Todo
}

func newStore() *store {
	return &store{nextID: 1, todos: make(map[int]Todo)}
}

func (s *store) add(title string) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Todo{ID: s.nextID, Title: title}
	s.todos[t.ID] = t
	s.nextID++

	return t
}

func (s *store) all() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos := make([]Todo, 0, len(s.todos))
	for _, t := range s.todos {
		todos = append(todos, t)
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })

	return todos
}

func (s *store) get(id int) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return Todo{}, fmt.Errorf("%w: %d", errNotFound, id)
	}

	return t, nil
}

func (s *store) remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return fmt.Errorf("%w: %d", errNotFound, id)
	}
	delete(s.todos, id)

	return nil
}

func (s *store) toggle(id int) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return Todo{}, fmt.Errorf("%w: %d", errNotFound, id)
	}
	t.Done = !t.Done
	s.todos[id] = t

	return t, nil
}
