package sftp

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/filicious/filicious"
	"github.com/gobwas/glob"
)

// DefaultPollInterval is how often a watch re-lists the remote tree.
const DefaultPollInterval = 10 * time.Second

// Watch implements filicious.CanWatch by polling: SFTP has no server
// push, so the subtree is re-listed on an interval and the token fires
// when the fingerprint of the matching entries changes.
func (a *Adapter) Watch(ctx context.Context, pattern string) (filicious.ChangeToken, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &filicious.PathError{Op: "watch", Path: pattern, Err: err}
	}

	last, err := a.fingerprint(ctx, g)
	if err != nil {
		return nil, err
	}

	token := filicious.NewPollingChangeToken(ctx, DefaultPollInterval, func() bool {
		current, err := a.fingerprint(ctx, g)
		if err != nil {
			// A dead session counts as a change; the consumer re-reads
			// and triggers the reconnect.
			return true
		}
		if current != last {
			last = current
			return true
		}
		return false
	})
	return token, nil
}

// fingerprint walks the remote tree and folds path, size and mtime of
// every entry matching the pattern into a comparable string.
func (a *Adapter) fingerprint(ctx context.Context, g glob.Glob) (string, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return "", err
	}

	var state string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := c.sftp.ReadDir(c.path(dir))
		if err != nil {
			return err
		}
		for _, info := range entries {
			p := path.Join(dir, info.Name())
			if g.Match(p) {
				state += fmt.Sprintf("%s|%d|%d;", p, info.Size(), info.ModTime().UnixNano())
			}
			if info.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(""); err != nil {
		return "", a.mapError("watch", "/", err)
	}
	return state, nil
}
