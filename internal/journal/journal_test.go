package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazycheck/internal/checker"
	"lazycheck/internal/guard"
	"lazycheck/internal/level"
	"lazycheck/internal/lightclass"
	"lazycheck/internal/subject"
)

var decl = lightclass.Declaration{Name: "geo.Shape", Fields: []string{"origin"}}

func record(t *testing.T, eager bool, started time.Time) *Record {
	t.Helper()
	res := checker.New(checker.Options{Eager: eager}).Run(context.Background(), decl)
	return NewRecord(res, started)
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	rec := record(t, false, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, s.Put(rec))

	got, err := s.Get(rec.Session)
	require.NoError(t, err)
	opt := cmp.Comparer(func(a, b subject.Key) bool { return a == b })
	if diff := cmp.Diff(rec, got, opt); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	byPrefix, err := s.Get(rec.Session[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.Session, byPrefix.Session)
}

func TestStore_GetMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = s.Get("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutRejectsBadID(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(&Record{Session: "../escape"}))
}

func TestStore_ListAndDrop(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := record(t, true, base.Add(time.Hour))
	earlier := record(t, false, base)
	require.NoError(t, s.Put(later))
	require.NoError(t, s.Put(earlier))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, earlier.Session, recs[0].Session)
	assert.Equal(t, later.Session, recs[1].Session)
	assert.NotEmpty(t, recs[1].Error)

	require.NoError(t, s.DropAll())
	recs, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReplay_ReproducesOutcome(t *testing.T) {
	for _, eager := range []bool{false, true} {
		rec := record(t, eager, time.Now())
		g, err := Replay(rec)
		require.NoError(t, err, "eager=%v", eager)
		assert.Equal(t, rec.Final, g.Current())
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	rec := record(t, false, time.Now())
	// Pretend the first report had been rejected.
	for i, e := range rec.Entries {
		if e.Op == guard.OpReport {
			rec.Entries[i].Violation = guard.ExceedsAllowed
			break
		}
	}
	_, err := Replay(rec)
	require.True(t, errors.Is(err, ErrReplayDiverged), "err = %v", err)

	rec = record(t, false, time.Now())
	rec.Final = level.Partial
	_, err = Replay(rec)
	require.ErrorIs(t, err, ErrReplayDiverged)
}
