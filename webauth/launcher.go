// Package webauth runs the interactive part of a browser-based authorization
// flow: it shows the provider's login page and waits for the single redirect
// back to the application.
package webauth

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned when the user abandons the authorization page.
var ErrCancelled = errors.New("authorization flow cancelled")

// Launcher opens authURL for the user and returns the full URL (fragment
// included) the provider redirected to. It resolves or fails exactly once.
type Launcher interface {
	Launch(ctx context.Context, authURL, redirectURI string) (string, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, authURL, redirectURI string) (string, error)

func (f LauncherFunc) Launch(ctx context.Context, authURL, redirectURI string) (string, error) {
	return f(ctx, authURL, redirectURI)
}

// outcome is a single-resolution result: the first resolve or reject wins
// and later calls are ignored.
type outcome struct {
	once sync.Once
	done chan struct{}
	url  string
	err  error
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{})}
}

func (o *outcome) resolve(url string) {
	o.once.Do(func() {
		o.url = url
		close(o.done)
	})
}

func (o *outcome) reject(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// wait blocks until the outcome settles or ctx ends.
func (o *outcome) wait(ctx context.Context) (string, error) {
	select {
	case <-o.done:
		return o.url, o.err
	case <-ctx.Done():
		o.reject(errors.Join(ErrCancelled, ctx.Err()))
		<-o.done
		return o.url, o.err
	}
}
