package memory

import (
	"context"

	"github.com/filicious/filicious"
	"github.com/gobwas/glob"
)

// watchEntry is a single watch subscription
type watchEntry struct {
	pattern glob.Glob
	token   *filicious.CallbackChangeToken
}

// Watch implements filicious.CanWatch. The pattern is a glob matched
// against adapter-local paths, e.g. "**/*.json" or "config/*".
func (a *Adapter) Watch(ctx context.Context, pattern string) (filicious.ChangeToken, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &filicious.PathError{Op: "watch", Path: pattern, Err: err}
	}

	token := filicious.NewCallbackChangeToken()

	a.watchMu.Lock()
	a.watches = append(a.watches, &watchEntry{pattern: g, token: token})
	a.watchMu.Unlock()

	// Drop the subscription when the caller's context ends.
	go func() {
		<-ctx.Done()
		a.removeWatch(token)
	}()

	return token, nil
}

// notify signals all watchers whose pattern matches the changed path.
func (a *Adapter) notify(p string) {
	a.watchMu.RLock()
	defer a.watchMu.RUnlock()

	for _, entry := range a.watches {
		if entry.pattern.Match(p) {
			entry.token.SignalChange()
		}
	}
}

func (a *Adapter) removeWatch(token *filicious.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}
