package providers

import (
	"errors"
	"fmt"
)

// Upstream data-shape failures. Scrapers wrap them in a ScrapeError so the
// message names the provider, the operation and the title.
var (
	ErrNoDataID   = errors.New("did not find any data id")
	ErrNoSources  = errors.New("did not find any supported sources")
	ErrNoIframe   = errors.New("did not find the player iframe")
	ErrNoHash     = errors.New("did not find the source hash")
	ErrNoRedirect = errors.New("did not get a redirect location")
	ErrNoPlayer   = errors.New("did not find the player script")
	ErrNoFiles    = errors.New("did not find any playable files")
	ErrNoSeason   = errors.New("did not find the requested season")
	ErrNoEpisode  = errors.New("did not find the requested episode")
	ErrNoBuildID  = errors.New("did not find a build id")
)

// ScrapeError is a data-shape failure while scraping a title
type ScrapeError struct {
	Provider string
	Op       string
	Title    string
	Err      error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s %s: %v while scraping %s", e.Provider, e.Op, e.Err, e.Title)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError wraps err with the provider, operation and title
func NewScrapeError(provider, op, title string, err error) error {
	return &ScrapeError{Provider: provider, Op: op, Title: title, Err: err}
}
