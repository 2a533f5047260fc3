package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therandomlabs/mpdl/internal/index"
	"github.com/therandomlabs/mpdl/internal/mpdl"
	"github.com/therandomlabs/mpdl/internal/pack"
)

type query struct {
	group   string
	minimum pack.Stability
}

// fakeIndex serves files from a map. Projects absent from files have no
// eligible file; projects in errs fail.
type fakeIndex struct {
	files map[int][]index.File
	errs  map[int]error
	delay time.Duration

	mu      sync.Mutex
	queries []query

	running    atomic.Int32
	maxRunning atomic.Int32
}

func (f *fakeIndex) Project(_ context.Context, projectID int) (*index.Project, error) {
	return &index.Project{ID: projectID, Name: fmt.Sprintf("Project %d", projectID)}, nil
}

func (f *fakeIndex) Files(_ context.Context, projectID int, group string, minimum pack.Stability) ([]index.File, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.maxRunning.Load()
		if n <= peak || f.maxRunning.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.queries = append(f.queries, query{group: group, minimum: minimum})
	f.mu.Unlock()

	if err, ok := f.errs[projectID]; ok {
		return nil, err
	}
	files, ok := f.files[projectID]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, index.ErrNoMatchingFiles)
	}
	return files, nil
}

func newManifest(vars map[string]string) *pack.Manifest {
	m := pack.NewManifest(mpdl.DefaultRegistry().Defaults())
	for k, v := range vars {
		m.Variables[k] = v
	}
	return m
}

func TestResolver_Resolve(t *testing.T) {
	// Arrange
	idx := &fakeIndex{files: map[int][]index.File{
		238222: {{ID: 2900000}, {ID: 2800000}},
		60028:  {{ID: 2700000}},
		32274:  {{ID: 1111111}},
	}}
	m := newManifest(map[string]string{mpdl.VarMinimumStability: "beta"})
	m.Mods = []pack.ModEntry{
		{ProjectID: 238222},
		{ProjectID: 32274, FileID: 2500000},
	}
	m.ServerMods = []pack.ModEntry{{ProjectID: 60028, Side: pack.SideServer}}
	m.Alternatives = []pack.ModEntry{{ProjectID: 310111, Group: "REI"}}

	var notified []int
	r := NewResolver(idx, 2, nil)
	r.OnNoFiles = func(e pack.ModEntry) {
		notified = append(notified, e.ProjectID)
	}

	// Act
	result, err := r.Resolve(context.Background(), m)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Resolved)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, 310111, result.Dropped[0].ProjectID)
	assert.Equal(t, []int{310111}, notified)

	assert.Equal(t, []pack.ModEntry{
		{ProjectID: 238222, FileID: 2900000, Title: "Project 238222"},
		{ProjectID: 32274, FileID: 2500000},
	}, m.Mods)
	assert.Equal(t, []pack.ModEntry{
		{ProjectID: 60028, FileID: 2700000, Title: "Project 60028", Side: pack.SideServer},
	}, m.ServerMods)
	assert.Empty(t, m.Alternatives)

	require.Len(t, idx.queries, 3)
	for _, q := range idx.queries {
		assert.Equal(t, query{group: "1.12", minimum: pack.StabilityBeta}, q)
	}
}

func TestResolver_EmptyFileListDrops(t *testing.T) {
	idx := &fakeIndex{files: map[int][]index.File{238222: {}}}
	m := newManifest(nil)
	m.Mods = []pack.ModEntry{{ProjectID: 238222}}

	calls := 0
	r := NewResolver(idx, 1, nil)
	r.OnNoFiles = func(pack.ModEntry) { calls++ }

	result, err := r.Resolve(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, result.Resolved)
	assert.Empty(t, m.Mods)
}

func TestResolver_ErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	idx := &fakeIndex{
		files: map[int][]index.File{238222: {{ID: 2900000}}},
		errs:  map[int]error{60028: boom},
	}
	m := newManifest(nil)
	m.Mods = []pack.ModEntry{{ProjectID: 238222}, {ProjectID: 60028}, {ProjectID: 310111}}

	calls := 0
	r := NewResolver(idx, 1, nil)
	r.OnNoFiles = func(pack.ModEntry) { calls++ }

	_, err := r.Resolve(context.Background(), m)

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, calls)
	assert.Len(t, m.Mods, 3)
}

func TestResolver_WorkerLimit(t *testing.T) {
	idx := &fakeIndex{files: map[int][]index.File{}, delay: 5 * time.Millisecond}
	m := newManifest(nil)
	for id := 100; id < 120; id++ {
		idx.files[id] = []index.File{{ID: id * 10}}
		m.Mods = append(m.Mods, pack.ModEntry{ProjectID: id})
	}

	result, err := NewResolver(idx, 3, nil).Resolve(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, 20, result.Resolved)
	assert.LessOrEqual(t, idx.maxRunning.Load(), int32(3))
	for _, e := range m.Mods {
		assert.Equal(t, e.ProjectID*10, e.FileID)
	}
}

func TestResolver_InvalidVariables(t *testing.T) {
	r := NewResolver(&fakeIndex{}, 1, nil)

	_, err := r.Resolve(context.Background(), newManifest(map[string]string{mpdl.VarMinecraft: "latest"}))
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), newManifest(map[string]string{mpdl.VarMinimumStability: "nightly"}))
	assert.Error(t, err)
}

func TestResolver_NothingToResolve(t *testing.T) {
	idx := &fakeIndex{}
	m := newManifest(nil)
	m.Mods = []pack.ModEntry{{ProjectID: 238222, FileID: 2500000}}

	result, err := NewResolver(idx, 0, nil).Resolve(context.Background(), m)

	require.NoError(t, err)
	assert.Zero(t, result.Resolved)
	assert.Empty(t, idx.queries)
	assert.Len(t, m.Mods, 1)
}
