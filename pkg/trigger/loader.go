package trigger

import (
	"context"
	"strings"

	"flickrscrapr/pkg/page"
)

// Loader produces the rendered page for a target URL
type Loader interface {
	Load(ctx context.Context, target string) (page.PageSource, error)
}

// FileLoader reads a page saved to disk from target
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context, target string) (page.PageSource, error) {
	return page.Load(l.Path, target)
}

// FetchLoader downloads target
type FetchLoader struct {
	Fetcher *page.Fetcher
}

func (l FetchLoader) Load(ctx context.Context, target string) (page.PageSource, error) {
	return l.Fetcher.Fetch(ctx, target)
}

// StaticLoader serves HTML that is already in hand, e.g. posted by a browser
type StaticLoader struct {
	HTML string
}

func (l StaticLoader) Load(ctx context.Context, target string) (page.PageSource, error) {
	return page.NewDocument(strings.NewReader(l.HTML), target)
}
