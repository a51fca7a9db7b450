// Package journal persists the guard history of checker sessions so that a
// failure can be inspected and replayed later.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"lazycheck/internal/checker"
	"lazycheck/internal/guard"
	"lazycheck/internal/level"
	"lazycheck/internal/subject"
)

// bump when Record changes shape
const schemaVersion uint16 = 1

var (
	// ErrNotFound is returned by Get for an unknown session.
	ErrNotFound = errors.New("journal: session not found")
	// ErrSchema is returned when a stored record has another schema version.
	ErrSchema = errors.New("journal: unsupported record schema")
	// ErrReplayDiverged is returned when replaying a record does not
	// reproduce its recorded outcome.
	ErrReplayDiverged = errors.New("journal: replay diverged from record")
)

// Record is one persisted session.
type Record struct {
	Schema  uint16        `msgpack:"schema"`
	Session string        `msgpack:"session"`
	Subject string        `msgpack:"subject"`
	Started time.Time     `msgpack:"started"`
	Took    time.Duration `msgpack:"took"`
	Final   level.Level   `msgpack:"final"`
	Error   string        `msgpack:"error,omitempty"`
	Entries []guard.Entry `msgpack:"entries"`
}

// NewRecord captures a checker result under a fresh session id.
func NewRecord(res checker.Result, started time.Time) *Record {
	rec := &Record{
		Schema:  schemaVersion,
		Session: uuid.New().String(),
		Subject: res.Subject.String(),
		Started: started.UTC(),
		Took:    res.Duration,
		Final:   res.Level,
		Entries: res.History,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

// Store keeps records as msgpack files in a directory. Safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/lazycheck/sessions, falling back to
// ~/.cache.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "lazycheck", "sessions"), nil
}

// Open returns a Store rooted at dir, creating it if needed. An empty dir
// means DefaultDir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) pathFor(session string) string {
	return filepath.Join(s.dir, session+".mp")
}

// Put writes rec atomically.
func (s *Store) Put(rec *Record) error {
	if _, err := uuid.Parse(rec.Session); err != nil {
		return fmt.Errorf("journal: bad session id %q: %w", rec.Session, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	if err := msgpack.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("journal: encode %s: %w", rec.Session, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.pathFor(rec.Session))
}

// Get reads the record of session. A unique prefix of the id is accepted.
func (s *Store) Get(session string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.pathFor(session)
	if _, err := uuid.Parse(session); err != nil {
		resolved, err := s.resolvePrefix(session)
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	return readRecord(path)
}

func (s *Store) resolvePrefix(prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.mp"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("journal: session prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func readRecord(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".mp"))
		}
		return nil, err
	}
	defer f.Close()

	var rec Record
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("journal: decode %s: %w", path, err)
	}
	if rec.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchema, rec.Schema)
	}
	return &rec, nil
}

// List returns every readable record, oldest first. Records that fail to
// decode are skipped.
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.mp"))
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, p := range paths {
		rec, err := readRecord(p)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].Session < out[j].Session
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out, nil
}

// DropAll removes every record.
func (s *Store) DropAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Replay applies rec's entries to a fresh guard and checks that every
// report meets the fate it met originally.
func Replay(rec *Record) (*guard.Guard, error) {
	key, err := subject.NewKey(rec.Subject)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	g := guard.New(key)
	for i, e := range rec.Entries {
		err := e.Apply(g)
		var got guard.ViolationKind
		if err != nil {
			var v *guard.Violation
			if !errors.As(err, &v) {
				return g, fmt.Errorf("journal: entry %d: %w", i+1, err)
			}
			got = v.Kind
		}
		if got != e.Violation {
			return g, fmt.Errorf("%w: entry %d (%s): got %s", ErrReplayDiverged, i+1, e, violationName(got))
		}
	}
	if g.Current() != rec.Final {
		return g, fmt.Errorf("%w: final level %s, recorded %s", ErrReplayDiverged, g.Current(), rec.Final)
	}
	return g, nil
}

func violationName(k guard.ViolationKind) string {
	if k == 0 {
		return "accepted"
	}
	return k.String()
}
