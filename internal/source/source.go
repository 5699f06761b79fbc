// Package source abstracts where the static resource files live. The loader
// only ever asks for a named resource and receives raw bytes; whether those
// come from an HTTP origin, a local directory or an S3 bucket is a deployment
// choice.
package source

import (
	"context"
	"fmt"
)

// Source fetches one named resource. An error means the resource could not be
// retrieved; interpreting that as a degraded-to-empty result is the loader's
// job, not the source's.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Name   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resource %s: unexpected status %d", e.Name, e.Status)
}
