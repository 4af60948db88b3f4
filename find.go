package filicious

import (
	"context"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Entry is a listed node: its adapter-local path plus metadata.
type Entry struct {
	Path string
	Stat *Stat
}

// Name returns the last path element.
func (e *Entry) Name() string { return path.Base(e.Path) }

// Selector filters entries during Find. Selectors compose with And, Or
// and Not; Descend lets a selector prune whole subtrees early.
type Selector interface {
	// Match reports whether the entry belongs in the results.
	Match(e *Entry) bool

	// Descend reports whether a directory's children should be visited.
	// Only consulted for directories.
	Descend(e *Entry) bool
}

// Find lists entries under root that match the selector. With recursive
// set, subtrees are visited as far as the selector's Descend allows.
// Directories themselves are not reported, matching entries are files
// and symlinks.
func Find(ctx context.Context, reader MetadataReader, root string, selector Selector, recursive bool) ([]Entry, error) {
	if selector == nil {
		selector = All()
	}
	var results []Entry
	if err := findWalk(ctx, reader, root, selector, recursive, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func findWalk(ctx context.Context, reader MetadataReader, dir string, selector Selector, recursive bool, results *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	names, err := reader.List(ctx, dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		p := path.Join(dir, name)
		st, err := reader.Stat(ctx, p)
		if err != nil {
			return err
		}
		entry := Entry{Path: p, Stat: st}

		if st.Type == TypeDirectory {
			if recursive && selector.Descend(&entry) {
				if err := findWalk(ctx, reader, p, selector, recursive, results); err != nil {
					return err
				}
			}
			continue
		}
		if selector.Match(&entry) {
			*results = append(*results, entry)
		}
	}
	return nil
}

type allSelector struct{}

func (allSelector) Match(*Entry) bool   { return true }
func (allSelector) Descend(*Entry) bool { return true }

// All matches every entry and descends everywhere.
func All() Selector { return allSelector{} }

type patternSelector struct {
	g glob.Glob
}

// Pattern matches entry names against a glob; "**" patterns match full
// paths instead.
func Pattern(pattern string) (Selector, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	return &patternSelector{g: g}, nil
}

func (s *patternSelector) Match(e *Entry) bool {
	return s.g.Match(e.Name()) || s.g.Match(e.Path)
}

func (s *patternSelector) Descend(*Entry) bool { return true }

type depthSelector struct {
	maxDepth int
	basePath string
}

// Depth limits matching and traversal to maxDepth levels below base;
// depth 1 means immediate children only.
func Depth(maxDepth int, basePath string) Selector {
	return &depthSelector{maxDepth: maxDepth, basePath: strings.TrimSuffix(basePath, "/")}
}

func (s *depthSelector) depth(p string) int {
	rel := strings.Trim(strings.TrimPrefix(p, s.basePath), "/")
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func (s *depthSelector) Match(e *Entry) bool   { return s.depth(e.Path) <= s.maxDepth }
func (s *depthSelector) Descend(e *Entry) bool { return s.depth(e.Path) < s.maxDepth }

type andSelector struct{ selectors []Selector }

// And matches only when all selectors match.
func And(selectors ...Selector) Selector { return &andSelector{selectors} }

func (s *andSelector) Match(e *Entry) bool {
	for _, sel := range s.selectors {
		if !sel.Match(e) {
			return false
		}
	}
	return true
}

func (s *andSelector) Descend(e *Entry) bool {
	for _, sel := range s.selectors {
		if sel.Descend(e) {
			return true
		}
	}
	return false
}

type orSelector struct{ selectors []Selector }

// Or matches when any selector matches.
func Or(selectors ...Selector) Selector { return &orSelector{selectors} }

func (s *orSelector) Match(e *Entry) bool {
	for _, sel := range s.selectors {
		if sel.Match(e) {
			return true
		}
	}
	return false
}

func (s *orSelector) Descend(e *Entry) bool {
	for _, sel := range s.selectors {
		if sel.Descend(e) {
			return true
		}
	}
	return false
}

type notSelector struct{ selector Selector }

// Not inverts a selector's match; traversal is unaffected.
func Not(selector Selector) Selector { return &notSelector{selector} }

func (s *notSelector) Match(e *Entry) bool { return !s.selector.Match(e) }
func (s *notSelector) Descend(*Entry) bool { return true }

type funcSelector struct {
	matchFn   func(*Entry) bool
	descendFn func(*Entry) bool
}

// Func builds a selector from a match function; traversal is unlimited.
func Func(fn func(*Entry) bool) Selector {
	return &funcSelector{matchFn: fn, descendFn: func(*Entry) bool { return true }}
}

func (s *funcSelector) Match(e *Entry) bool   { return s.matchFn(e) }
func (s *funcSelector) Descend(e *Entry) bool { return s.descendFn(e) }
