package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ribbons/internal/feeling"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const doc = `feelings:
  - id: a
    emotionId: calm
    createdAt: "2026-03-01T10:00:00Z"
  - id: b
    emotionId: grief
    createdAt: "2026-03-01T10:00:00Z"
  - id: c
    emotionId: joy
    createdAt: "2026-02-01T10:00:00Z"
  - id: d
    emotionId: joy
    createdAt: "yesterday"
  - id: e
    emotionId: anger
    path: [{x: 0, y: 0.3}, {x: 0.5, y: 0.7}]
    createdAt: "2026-03-01T11:00:00Z"
`

func TestFileSourceFiltersAndSynthesizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	src := &FileSource{Path: path, Now: func() time.Time { return t0 }}
	list, err := src.Feelings(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2, "unknown emotion, bad timestamp and expired are dropped")

	assert.Equal(t, "a", list[0].ID)
	assert.Len(t, list[0].Path, feeling.PathSamples, "missing path is synthesized")
	assert.Equal(t, "e", list[1].ID)
	assert.Len(t, list[1].Path, 2)
	assert.Equal(t, list[1].CreatedAt.Add(feeling.Lifespan), list[1].ExpiresAt)
}

func TestDecodeBareList(t *testing.T) {
	list, errs := Decode([]byte(`- {id: x, emotionId: hope, createdAt: "2026-03-01T10:00:00Z"}`))
	assert.Empty(t, errs)
	require.Len(t, list, 1)
	assert.Equal(t, "hope", list[0].EmotionID)

	_, errs = Decode([]byte("feelings: {"))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errDocument)
}

func TestEncodeRoundTripKeepsPath(t *testing.T) {
	d := NewDemo(3, 0, "rt")
	d.Now = func() time.Time { return t0 }
	list, err := d.Feelings(context.Background())
	require.NoError(t, err)

	data, err := Encode(list)
	require.NoError(t, err)
	back, errs := Decode(data)
	require.Empty(t, errs)
	require.Len(t, back, 3)
	for i := range list {
		assert.Equal(t, list[i].ID, back[i].ID)
		assert.True(t, list[i].CreatedAt.Equal(back[i].CreatedAt))
		require.Len(t, back[i].Path, len(list[i].Path))
		assert.InDelta(t, list[i].Path[5].Y, back[i].Path[5].Y, 1e-12)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := &FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	_, err := src.Feelings(context.Background())
	assert.Error(t, err)
}

func TestDemoDeterministicAndValid(t *testing.T) {
	a := NewDemo(20, time.Minute, "seed")
	b := NewDemo(20, time.Minute, "seed")
	a.Now = func() time.Time { return t0 }
	b.Now = func() time.Time { return t0 }

	la, err := a.Feelings(context.Background())
	require.NoError(t, err)
	lb, err := b.Feelings(context.Background())
	require.NoError(t, err)
	require.Len(t, la, 20)
	for i := range la {
		assert.Equal(t, la[i].ID, lb[i].ID)
		require.NoError(t, feeling.Validate(la[i]))
		assert.False(t, la[i].Expired(t0))
	}
	assert.True(t, la[0].CreatedAt.Before(la[19].CreatedAt), "oldest first")
}

func TestDemoEmitsArrivals(t *testing.T) {
	now := t0
	d := NewDemo(5, time.Second, "arrivals")
	d.Now = func() time.Time { return now }

	list, err := d.Feelings(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 5)

	now = now.Add(3 * time.Second)
	list, err = d.Feelings(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)

	now = now.Add(time.Hour)
	list, err = d.Feelings(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8+maxBurst, "a long pause is capped")
}

func TestSnapshotAndRefresh(t *testing.T) {
	var snap Snapshot
	assert.Nil(t, snap.Load())

	d := NewDemo(4, 0, "snap")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Refresh(ctx, d, &snap, time.Millisecond, nil) }()

	require.Eventually(t, func() bool { return snap.Version() >= 2 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Len(t, snap.Load(), 4)
	assert.False(t, snap.UpdatedAt().IsZero())
}

func TestLive(t *testing.T) {
	fresh := feeling.New("f", "calm", "", nil, t0)
	old := feeling.New("o", "calm", "", nil, t0.Add(-feeling.Lifespan))
	got := Live([]feeling.Feeling{fresh, old}, t0)
	require.Len(t, got, 1)
	assert.Equal(t, "f", got[0].ID)
}
