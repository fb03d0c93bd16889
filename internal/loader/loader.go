package loader

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"reeng/internal/scene"
)

// DefaultWorkers is the number of models loaded in parallel when none is given.
const DefaultWorkers = 4

// ErrTypeClosed is the type of errors returned when loading through a closed loader.
const ErrTypeClosed = "loader_closed"

// Completion is the outcome of a load request.
type Completion struct {
	Request  Request
	Instance *scene.Instance // nil when Err is set
	Err      error
}

// Loader reads model files on background workers and hands fully built
// instances back through a completion queue. Models are loaded once per
// path and shared by every instance.
type Loader struct {
	workers errgroup.Group
	flight  singleflight.Group

	mu         sync.Mutex
	models     map[string]*scene.Model
	completed  []Completion
	pending    int
	idle       chan struct{} // closed while nothing is pending
	closed     bool
	dispatches sync.WaitGroup
}

// New creates a loader running at most workers loads at a time.
func New(workers int) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	l := &Loader{
		models: make(map[string]*scene.Model),
		idle:   make(chan struct{}),
	}
	close(l.idle)
	l.workers.SetLimit(workers)
	return l
}

// Load queues the creation of an instance. It does not block: the result is
// returned by a later Drain.
func (l *Loader) Load(req Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.New("loader is closed").WithType(ErrTypeClosed)
	}
	if l.pending == 0 {
		l.idle = make(chan struct{})
	}
	l.pending++
	instrumentPending(1)

	l.dispatches.Add(1)
	go func() {
		defer l.dispatches.Done()

		// Go blocks while every worker is busy.
		l.workers.Go(func() error {
			l.complete(l.build(req))
			return nil
		})
	}()
	return nil
}

// LoadLevel reads a level file and queues every instance it lists. It
// returns the number of queued requests.
func (l *Loader) LoadLevel(path string) (int, error) {
	requests, err := ReadLevel(path)
	if err != nil {
		return 0, err
	}

	for i, req := range requests {
		if err := l.Load(req); err != nil {
			return i, err
		}
	}

	logs.WithTag("path", path).
		WithTag("instances", len(requests)).
		Info("level queued")
	return len(requests), nil
}

// Model returns the model stored at path, reading it on first use.
// Concurrent calls for the same path share a single read.
func (l *Loader) Model(path string) (*scene.Model, error) {
	key := modelKey(path)

	l.mu.Lock()
	m, ok := l.models[key]
	l.mu.Unlock()
	if ok {
		return m, nil
	}

	v, err, _ := l.flight.Do(key, func() (any, error) {
		start := time.Now()
		m, err := ReadModel(path)
		if err != nil {
			instrumentModelLoad(err, start)
			return nil, err
		}

		l.mu.Lock()
		l.models[key] = m
		l.mu.Unlock()

		instrumentModelLoad(nil, start)
		logs.WithTag("path", path).
			WithTag("groups", len(m.GroupShapes())).
			Debug("model loaded")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scene.Model), nil
}

// AddModel stores a model built in memory under the given path.
func (l *Loader) AddModel(path string, m *scene.Model) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models[modelKey(path)] = m
}

// HasModel reports whether the model at path is loaded.
func (l *Loader) HasModel(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.models[modelKey(path)]
	return ok
}

// ModelPaths returns the sorted keys of the loaded models.
func (l *Loader) ModelPaths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths := make([]string, 0, len(l.models))
	for p := range l.models {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Drain returns the loads finished since the last call, in completion
// order. It never blocks on pending loads.
func (l *Loader) Drain() []Completion {
	l.mu.Lock()
	defer l.mu.Unlock()

	completed := l.completed
	l.completed = nil
	return completed
}

// Pending returns the number of queued loads not completed yet.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Wait blocks until every queued load completed or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting requests and waits for the running loads.
// Completions stay available to Drain.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.dispatches.Wait()
	return l.workers.Wait()
}

func (l *Loader) build(req Request) Completion {
	m, err := l.Model(req.Model)
	if err != nil {
		return Completion{Request: req, Err: err}
	}

	name := req.Name
	if name == "" {
		name = m.Name + "-" + uuid.NewString()
	}

	inst := scene.NewInstance(m, name, req.Matrix())
	inst.Visible = req.IsVisible()
	inst.Collidable = req.IsCollidable()
	if len(m.Sequences) > 0 {
		inst.Play(req.State)
	}

	return Completion{Request: req, Instance: inst}
}

func (l *Loader) complete(c Completion) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.completed = append(l.completed, c)
	l.pending--
	instrumentPending(-1)
	if l.pending == 0 {
		close(l.idle)
	}
}

func modelKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
