package engine

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	application "github.com/zjrosen/githydra/internal/git/application"
	"github.com/zjrosen/githydra/internal/log"
	"github.com/zjrosen/githydra/internal/pubsub"
)

// SchedulerConfig configures the RefreshScheduler.
type SchedulerConfig struct {
	// Gateway performs the snapshot reads.
	Gateway application.Gateway

	// Events receives SectionRefreshed events.
	Events *pubsub.Broker[Event]

	// Debounce is the coalescing window for refresh requests.
	// Defaults to 250ms.
	Debounce time.Duration

	// IdleInterval is the period of the background refresh that catches
	// externally made changes. Zero disables the idle timer.
	IdleInterval time.Duration

	// LogLimit caps the number of commits loaded per log refresh.
	// Defaults to 200.
	LogLimit int

	// WatchDir is the repository's .git directory. When set, filesystem
	// changes under it also trigger refreshes. Empty disables watching.
	WatchDir string
}

// RefreshScheduler triggers and debounces snapshot refreshes. Every
// refresh carries a strictly increasing sequence number per section; the
// apply side discards anything older than the newest applied, which is the
// only ordering guarantee across asynchronous results.
type RefreshScheduler struct {
	gateway      application.Gateway
	events       *pubsub.Broker[Event]
	debounce     time.Duration
	idleInterval time.Duration
	logLimit     int
	watchDir     string

	mu      sync.Mutex
	nextSeq map[Section]uint64
	timers  map[Section]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewRefreshScheduler creates a RefreshScheduler from cfg. Panics if
// cfg.Gateway is nil.
func NewRefreshScheduler(cfg SchedulerConfig) *RefreshScheduler {
	if cfg.Gateway == nil {
		panic("gateway is required for RefreshScheduler")
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}
	logLimit := cfg.LogLimit
	if logLimit == 0 {
		logLimit = 200
	}
	return &RefreshScheduler{
		gateway:      cfg.Gateway,
		events:       cfg.Events,
		debounce:     debounce,
		idleInterval: cfg.IdleInterval,
		logLimit:     logLimit,
		watchDir:     cfg.WatchDir,
		nextSeq:      make(map[Section]uint64),
		timers:       make(map[Section]*time.Timer),
	}
}

// Start launches the idle timer and filesystem watcher. Safe to call once.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	if s.idleInterval > 0 {
		s.wg.Add(1)
		log.SafeGo("scheduler.idleLoop", func() {
			defer s.wg.Done()
			s.idleLoop()
		})
	}

	if s.watchDir != "" {
		s.wg.Add(1)
		log.SafeGo("scheduler.watchLoop", func() {
			defer s.wg.Done()
			s.watchLoop()
		})
	}

	log.SafeGo("scheduler.closer", func() {
		<-s.ctx.Done()
		s.stopTimers()
		s.wg.Wait()
		close(s.done)
	})
}

// Stop cancels pending work and waits for background loops to exit.
// Safe to call multiple times or before Start.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// RequestRefresh schedules a refresh of the given sections. Requests for a
// section arriving inside the debounce window coalesce into one backend
// call.
func (s *RefreshScheduler) RequestRefresh(sections ...Section) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, section := range sections {
		if _, pending := s.timers[section]; pending {
			continue // coalesce
		}
		section := section
		s.timers[section] = time.AfterFunc(s.debounce, func() {
			s.fire(section)
		})
	}
}

// RequestAll schedules a refresh of every section.
func (s *RefreshScheduler) RequestAll() {
	s.RequestRefresh(AllSections()...)
}

func (s *RefreshScheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for section, t := range s.timers {
		t.Stop()
		delete(s.timers, section)
	}
}

// fire performs one debounced refresh. It runs on the timer goroutine.
func (s *RefreshScheduler) fire(section Section) {
	s.mu.Lock()
	delete(s.timers, section)
	s.nextSeq[section]++
	seq := s.nextSeq[section]
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	ev := SectionRefreshed{Section: section, Seq: seq}
	switch section {
	case SectionStatus:
		res, err := s.gateway.Status(ctx)
		ev.Status, ev.Err = &res, err
	case SectionLog:
		ev.Commits, ev.Err = s.gateway.Log(ctx, s.logLimit)
	case SectionBranches:
		ev.Branches, ev.Err = s.gateway.Branches(ctx)
		if ev.Err == nil {
			ev.Remotes, ev.Err = s.gateway.Remotes(ctx)
		}
	case SectionStash:
		ev.Stashes, ev.Err = s.gateway.StashList(ctx)
	}

	if ev.Err != nil {
		log.Warn(log.CatScheduler, "refresh failed", "section", section.String(), "seq", seq, "err", ev.Err)
	} else {
		log.Debug(log.CatScheduler, "refresh completed", "section", section.String(), "seq", seq)
	}

	if s.events != nil {
		s.events.Publish(ev)
	}
}

func (s *RefreshScheduler) idleLoop() {
	ticker := time.NewTicker(s.idleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RequestAll()
		}
	}
}

// watchLoop refreshes when something else touches the repository: another
// git process, an editor writing the index, a fetch updating refs.
func (s *RefreshScheduler) watchLoop() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn(log.CatScheduler, "filesystem watcher unavailable", "err", err)
		return
	}
	defer func() { _ = watcher.Close() }()

	// Watch the .git directory itself plus the ref hierarchy. Watching
	// individual files misses git's write-rename update pattern.
	paths := []string{
		s.watchDir,
		filepath.Join(s.watchDir, "refs", "heads"),
		filepath.Join(s.watchDir, "refs", "remotes"),
	}
	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			log.Debug(log.CatScheduler, "watch path skipped", "path", p, "err", err)
		}
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if sections := sectionsForFSEvent(event.Name); len(sections) > 0 {
				log.Debug(log.CatScheduler, "external change detected", "path", event.Name)
				s.RequestRefresh(sections...)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatScheduler, "watcher error", "err", err)
		}
	}
}

// sectionsForFSEvent maps a changed path inside .git onto the snapshot
// sections it can affect. Lock files and unrelated noise map to nothing.
func sectionsForFSEvent(path string) []Section {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".lock") {
		return nil
	}

	switch base {
	case "index":
		return []Section{SectionStatus}
	case "HEAD", "ORIG_HEAD", "packed-refs":
		return []Section{SectionStatus, SectionLog, SectionBranches}
	case "stash":
		return []Section{SectionStash}
	}
	if strings.Contains(path, string(filepath.Separator)+"refs"+string(filepath.Separator)) {
		return []Section{SectionStatus, SectionLog, SectionBranches}
	}
	return nil
}
