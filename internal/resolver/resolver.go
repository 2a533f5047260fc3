package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/therandomlabs/mpdl/internal/index"
	"github.com/therandomlabs/mpdl/internal/mcversion"
	"github.com/therandomlabs/mpdl/internal/mpdl"
	"github.com/therandomlabs/mpdl/internal/pack"
)

// DefaultWorkers is the number of concurrent index lookups used when none is
// configured.
const DefaultWorkers = 5

// Index is the mod index consulted for unresolved mods. Files returns
// candidates newest first.
type Index interface {
	Project(ctx context.Context, projectID int) (*index.Project, error)
	Files(ctx context.Context, projectID int, versionGroup string, minimum pack.Stability) ([]index.File, error)
}

// Result summarizes a resolution pass.
type Result struct {
	Resolved int
	Dropped  []pack.ModEntry
}

// Resolver fills in titles and file IDs of mods that track the latest file.
type Resolver struct {
	index   Index
	workers int
	logger  *log.Logger

	// OnNoFiles is called once for every mod dropped because the index has
	// no eligible file for it.
	OnNoFiles func(pack.ModEntry)
}

// NewResolver creates a resolver that runs at most workers lookups at once.
func NewResolver(idx Index, workers int, logger *log.Logger) *Resolver {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		index:   idx,
		workers: workers,
		logger:  logger,
	}
}

type job struct {
	list pack.ModList
	i    int
}

// Resolve resolves every mod in m whose file ID is LatestFile. Mods without
// an eligible file are removed from m after all lookups finish. Any other
// lookup failure aborts the pass and m is left partially resolved.
func (r *Resolver) Resolve(ctx context.Context, m *pack.Manifest) (Result, error) {
	minecraft, err := mcversion.Parse(m.Variables[mpdl.VarMinecraft])
	if err != nil {
		return Result{}, fmt.Errorf("minecraft version: %w", err)
	}
	minimum, err := pack.ParseStability(m.Variables[mpdl.VarMinimumStability])
	if err != nil {
		return Result{}, fmt.Errorf("minimum stability: %w", err)
	}
	group := minecraft.Group()

	var jobs []job
	for _, l := range m.Lists() {
		for i, entry := range *m.List(l) {
			if entry.Latest() {
				jobs = append(jobs, job{list: l, i: i})
			}
		}
	}
	r.logger.Debug("resolving mods", "count", len(jobs), "group", group, "stability", minimum, "workers", r.workers)

	found := make([]bool, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for n, j := range jobs {
		n := n
		entry := &(*m.List(j.list))[j.i]
		g.Go(func() error {
			ok, err := r.resolveOne(gctx, entry, group, minimum)
			found[n] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var result Result
	dropped := mapset.NewThreadUnsafeSet[int]()
	for n, j := range jobs {
		entry := (*m.List(j.list))[j.i]
		if found[n] {
			result.Resolved++
			continue
		}
		dropped.Add(entry.ProjectID)
		result.Dropped = append(result.Dropped, entry)
		r.logger.Debug("no matching files", "project", entry.ProjectID, "group", group, "stability", minimum)
		if r.OnNoFiles != nil {
			r.OnNoFiles(entry)
		}
	}
	for _, l := range m.Lists() {
		list := m.List(l)
		*list = slices.DeleteFunc(*list, func(e pack.ModEntry) bool {
			return dropped.Contains(e.ProjectID)
		})
	}
	return result, nil
}

// resolveOne writes the title and newest eligible file ID into entry. It
// returns false if the index has no eligible file.
func (r *Resolver) resolveOne(ctx context.Context, entry *pack.ModEntry, group string, minimum pack.Stability) (bool, error) {
	files, err := r.index.Files(ctx, entry.ProjectID, group, minimum)
	if errors.Is(err, index.ErrNoMatchingFiles) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolving project %d: %w", entry.ProjectID, err)
	}
	if len(files) == 0 {
		return false, nil
	}

	project, err := r.index.Project(ctx, entry.ProjectID)
	if err != nil {
		return false, fmt.Errorf("resolving project %d: %w", entry.ProjectID, err)
	}

	entry.Title = project.Name
	entry.FileID = files[0].ID
	r.logger.Debug("resolved", "project", entry.ProjectID, "title", entry.Title, "file", entry.FileID)
	return true, nil
}
