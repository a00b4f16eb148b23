package resilience

import (
	"context"
	"fmt"
)

// Uploader copies a screenshot to remote storage
type Uploader interface {
	UploadScreenshot(ctx context.Context, name string, data []byte) (string, error)
}

// GuardedUploader sends uploads through a Breaker
type GuardedUploader struct {
	next    Uploader
	breaker *Breaker
}

// GuardUploader wraps next with breaker
func GuardUploader(next Uploader, breaker *Breaker) *GuardedUploader {
	return &GuardedUploader{next: next, breaker: breaker}
}

// UploadScreenshot uploads data unless the breaker is open
func (g *GuardedUploader) UploadScreenshot(ctx context.Context, name string, data []byte) (string, error) {
	var location string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		location, err = g.next.UploadScreenshot(ctx, name, data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload via %s breaker: %w", g.breaker.Name(), err)
	}
	return location, nil
}

// Breaker returns the breaker guarding uploads
func (g *GuardedUploader) Breaker() *Breaker {
	return g.breaker
}
