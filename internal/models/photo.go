package models

import (
	"sync/atomic"
	"time"
)

// Trigger tells what caused a photo to be taken.
type Trigger string

const (
	TriggerMotion Trigger = "motion"
	TriggerManual Trigger = "manual"
)

// Photo is a saved frame. The public URL is filled in once the background
// upload finishes and is never changed afterwards.
type Photo struct {
	Path       string
	CapturedAt time.Time
	Trigger    Trigger

	url atomic.Pointer[string]
}

// SetURL assigns the public URL. It reports false if a URL was already set.
func (p *Photo) SetURL(url string) bool {
	return p.url.CompareAndSwap(nil, &url)
}

// URL returns the public URL, if the upload has succeeded.
func (p *Photo) URL() (string, bool) {
	if u := p.url.Load(); u != nil {
		return *u, true
	}
	return "", false
}
