package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"

	"voxd/internal/fault"
)

var errUnknownPlatform = errors.New("unknown platform")

var mediaSearchURLs = map[string]string{
	"youtube": "https://www.youtube.com/results?search_query=",
	"spotify": "https://open.spotify.com/search/",
	"apple":   "https://music.apple.com/search?term=",
}

var mediaHomeURLs = map[string]string{
	"youtube": "https://www.youtube.com/",
	"spotify": "https://open.spotify.com/",
	"apple":   "https://music.apple.com/",
}

// Browser opens media searches with the desktop's URL handler.
type Browser struct {
	Command string

	run func(ctx context.Context, name string, args ...string) error
}

func NewBrowser(command string) *Browser {
	if command == "" {
		command = "xdg-open"
	}
	return &Browser{Command: command, run: runDetached}
}

func (b *Browser) Open(ctx context.Context, platform, query string) error {
	target, ok := MediaURL(platform, query)
	if !ok {
		return fault.Provider("media", fault.KindBadResponse, fmt.Errorf("%w: %s", errUnknownPlatform, platform))
	}
	if err := b.run(ctx, b.Command, target); err != nil {
		return fault.Provider("media", fault.KindTransport, err)
	}
	return nil
}

// MediaURL returns the search page for query on platform, or the platform
// home page when query is empty.
func MediaURL(platform, query string) (string, bool) {
	if query == "" {
		u, ok := mediaHomeURLs[platform]
		return u, ok
	}
	base, ok := mediaSearchURLs[platform]
	if !ok {
		return "", false
	}
	if platform == "spotify" {
		return base + url.PathEscape(query), true
	}
	return base + url.QueryEscape(query), true
}

// runDetached starts the handler and reaps it in the background; the
// browser must outlive the request context.
func runDetached(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
