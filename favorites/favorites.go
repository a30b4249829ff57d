// Package favorites keeps the client-side favorites list: a pure
// action-tagged reducer over a movie set keyed by id, and a durable JSON
// store mirroring the reduced state.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviedex/movies-cli/internal/fstore"
	"github.com/moviedex/movies-cli/movies"
)

// Action is a favorites state transition.
type Action interface {
	isAction()
}

// Add puts a movie on the favorites list. Adding a movie already present is
// a no-op.
type Add struct {
	Movie movies.Movie
}

// Remove takes the movie with the given id off the favorites list.
type Remove struct {
	ID int
}

func (Add) isAction()    {}
func (Remove) isAction() {}

// Reduce applies an action to a favorites list, returning the new list.
// The input slice is never mutated.
func Reduce(favorites []movies.Movie, action Action) []movies.Movie {
	switch a := action.(type) {
	case Add:
		for _, m := range favorites {
			if m.ID == a.Movie.ID {
				return favorites
			}
		}
		out := make([]movies.Movie, len(favorites), len(favorites)+1)
		copy(out, favorites)
		return append(out, a.Movie)

	case Remove:
		out := make([]movies.Movie, 0, len(favorites))
		for _, m := range favorites {
			if m.ID != a.ID {
				out = append(out, m)
			}
		}
		return out

	default:
		return favorites
	}
}

// Store holds the favorites list in memory and mirrors every change to a
// JSON file. A missing or corrupt file loads as an empty list.
type Store struct {
	path string
	log  zerolog.Logger

	mu        sync.Mutex
	favorites []movies.Movie
}

// NewStore creates a favorites store backed by the file at path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the persisted favorites into memory.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var favorites []movies.Movie
	if err := json.Unmarshal(data, &favorites); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("corrupt favorites file, starting empty")
		return nil
	}

	s.mu.Lock()
	s.favorites = favorites
	s.mu.Unlock()
	return nil
}

// Add puts a movie on the list and persists the result.
func (s *Store) Add(movie movies.Movie) {
	s.apply(Add{Movie: movie})
}

// Remove takes a movie off the list and persists the result.
func (s *Store) Remove(movieID int) {
	s.apply(Remove{ID: movieID})
}

func (s *Store) apply(action Action) {
	s.mu.Lock()
	s.favorites = Reduce(s.favorites, action)
	snapshot := make([]movies.Movie, len(s.favorites))
	copy(snapshot, s.favorites)
	s.mu.Unlock()

	if err := s.save(snapshot); err != nil {
		// Persistence is best-effort; the in-memory list stays authoritative.
		s.log.Error().Err(err).Msg("failed to save favorites")
	}
}

func (s *Store) save(favorites []movies.Movie) error {
	lock, err := fstore.Acquire(s.path)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			s.log.Warn().Err(releaseErr).Msg("failed to release favorites file lock")
		}
	}()

	data, err := json.MarshalIndent(favorites, "", "  ")
	if err != nil {
		return err
	}
	return fstore.WriteAtomic(s.path, data)
}

// IsFavorite reports whether the movie with the given id is on the list.
func (s *Store) IsFavorite(movieID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.favorites {
		if m.ID == movieID {
			return true
		}
	}
	return false
}

// Favorites returns a copy of the current list.
func (s *Store) Favorites() []movies.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]movies.Movie, len(s.favorites))
	copy(out, s.favorites)
	return out
}
