package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/N3moAhead/roster/internal/migration"
	"github.com/N3moAhead/roster/internal/person"
)

var ErrNotFound = errors.New("person not found")

type Database struct {
	Version string          `json:"version"`
	Persons []person.Person `json:"persons"`
}

// Store keeps the database in memory and writes it back to path after every
// change. It backs the development server.
type Store struct {
	mu   sync.Mutex
	path string
	db   Database
}

// Open migrates the file at path if needed and loads it. A missing file
// yields an empty store.
func Open(path string) (*Store, error) {
	if err := migration.RunMigrations(path); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	s := &Store{
		path: path,
		db:   Database{Version: migration.CurrentVersion, Persons: []person.Person{}},
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &s.db); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.db.Persons == nil {
		s.db.Persons = []person.Person{}
	}
	return s, nil
}

// List returns a copy of all persons in insertion order.
func (s *Store) List() []person.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]person.Person, len(s.db.Persons))
	copy(out, s.db.Persons)
	return out
}

func (s *Store) Create(d person.Draft) (person.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := person.Person{
		ID:         person.ID(uuid.New().String()),
		Name:       d.Name,
		Occupation: d.Occupation,
		IDNumber:   d.IDNumber,
		Telephone:  d.Telephone,
	}
	s.db.Persons = append(s.db.Persons, p)
	if err := s.save(); err != nil {
		s.db.Persons = s.db.Persons[:len(s.db.Persons)-1]
		return person.Person{}, err
	}
	return p, nil
}

func (s *Store) Delete(id person.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.db.Persons {
		if p.ID != id {
			continue
		}
		prev := s.db.Persons
		next := make([]person.Person, 0, len(prev)-1)
		next = append(next, prev[:i]...)
		next = append(next, prev[i+1:]...)
		s.db.Persons = next
		if err := s.save(); err != nil {
			s.db.Persons = prev
			return err
		}
		return nil
	}
	return ErrNotFound
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	content, err := json.MarshalIndent(s.db, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, content, 0644)
}
