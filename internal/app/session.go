package app

import (
	"context"
	"errors"
	"os"

	"github.com/dshills/wstrim/internal/logging"
	"github.com/dshills/wstrim/internal/watcher"
)

// Session treats every external write to a watched file as a save: the
// buffer is reloaded from disk, pre-save hooks trim it, and the result is
// written back when it differs. Events are handled one at a time on the
// goroutine running Run.
type Session struct {
	app     *App
	watcher *watcher.Watcher
	logger  *logging.Logger
	ctx     context.Context
}

// NewSession opens paths and prepares to watch them.
func (a *App) NewSession(paths ...string) (*Session, error) {
	s := &Session{
		app:    a,
		logger: a.logger.WithComponent("session"),
		ctx:    context.Background(),
	}

	w, err := watcher.New(s.handle, watcher.WithDebounce(a.opts.Debounce), watcher.WithLogger(a.logger))
	if err != nil {
		return nil, NewOperationError("watch", "", err)
	}
	s.watcher = w

	for _, path := range paths {
		doc, err := a.docs.Open(path)
		if err != nil {
			w.Close()
			return nil, err
		}
		if err := w.Add(doc.Path()); err != nil {
			w.Close()
			return nil, NewOperationError("watch", doc.Path(), err)
		}
		s.logger.Info("watching %s", doc.Path())
	}
	return s, nil
}

// Files returns the watched paths.
func (s *Session) Files() []string {
	return s.watcher.Files()
}

// Run processes file events until ctx is cancelled. A write still waiting
// out its debounce when ctx is done is saved before Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = context.WithoutCancel(ctx)
	defer s.watcher.Close()

	err := s.watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) handle(ev watcher.Event) {
	doc, ok := s.app.docs.GetByPath(ev.Path)
	if !ok {
		return
	}
	log := s.logger.WithField("path", ev.Path)

	if ev.Op == watcher.OpRemove {
		log.Info("file removed, keeping buffer")
		return
	}

	data, err := os.ReadFile(ev.Path)
	if err != nil {
		log.Warn("read: %v", err)
		return
	}
	// Our own write-back, or a touch without changes.
	if string(data) == doc.Content() {
		return
	}

	doc.SetContent(string(data))
	if err := s.app.docs.Save(s.ctx, doc.ID()); err != nil {
		log.Error("save: %v", err)
		return
	}
	log.Debug("processed %s", ev.Op)
}
