package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/filicious/filicious"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// subscription pairs a compiled glob with the token it signals.
type subscription struct {
	pattern glob.Glob
	token   *filicious.CallbackChangeToken
}

// dirWatcher fans fsnotify events out to glob subscriptions. fsnotify
// watches are not recursive, so every directory in the subtree is added
// individually and newly created directories are added as they appear.
type dirWatcher struct {
	fsw  *fsnotify.Watcher
	root string

	mu   sync.Mutex
	subs []*subscription
}

func newDirWatcher(root string) (*dirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &dirWatcher{fsw: fsw, root: root}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *dirWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					w.fsw.Add(ev.Name)
				}
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			w.signal(filepath.ToSlash(rel))
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// signal fires and drops every subscription matching the changed path;
// change tokens are single-use.
func (w *dirWatcher) signal(rel string) {
	w.mu.Lock()
	var keep []*subscription
	var fired []*subscription
	for _, s := range w.subs {
		if s.pattern.Match(rel) {
			fired = append(fired, s)
		} else {
			keep = append(keep, s)
		}
	}
	w.subs = keep
	w.mu.Unlock()

	for _, s := range fired {
		s.token.SignalChange()
	}
}

func (w *dirWatcher) subscribe(s *subscription) {
	w.mu.Lock()
	w.subs = append(w.subs, s)
	w.mu.Unlock()
}

func (w *dirWatcher) unsubscribe(token *filicious.CallbackChangeToken) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.subs {
		if s.token == token {
			w.subs[i] = w.subs[len(w.subs)-1]
			w.subs = w.subs[:len(w.subs)-1]
			return
		}
	}
}

func (w *dirWatcher) close() {
	w.fsw.Close()
}

// Watch implements filicious.CanWatch using native filesystem events.
// The pattern is a glob matched against adapter-local paths.
func (a *Adapter) Watch(ctx context.Context, pattern string) (filicious.ChangeToken, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &filicious.PathError{Op: "watch", Path: pattern, Err: err}
	}

	root, err := a.root(ctx)
	if err != nil {
		return nil, err
	}

	a.watchMu.Lock()
	if a.watcher != nil && a.watcher.root != root {
		// Base path changed since the watcher was set up.
		a.watcher.close()
		a.watcher = nil
	}
	if a.watcher == nil {
		w, err := newDirWatcher(root)
		if err != nil {
			a.watchMu.Unlock()
			return nil, &filicious.PathError{Op: "watch", Path: pattern, Err: err}
		}
		a.watcher = w
	}
	w := a.watcher
	a.watchMu.Unlock()

	token := filicious.NewCallbackChangeToken()
	w.subscribe(&subscription{pattern: g, token: token})

	go func() {
		<-ctx.Done()
		w.unsubscribe(token)
	}()

	return token, nil
}
