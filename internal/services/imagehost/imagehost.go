// Package imagehost publishes rendered graphs and returns their public URL.
package imagehost

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultTitle title attached to every uploaded graph.
	DefaultTitle = "Crypto Balance Check"

	timeLayout = "2006-01-02 15:04:05"
)

// Metadata describes an uploaded image.
type Metadata struct {
	Title       string
	Description string
}

// NewMetadata "<first> to <last>" description over the plotted range.
func NewMetadata(first, last time.Time) Metadata {
	return Metadata{
		Title:       DefaultTitle,
		Description: fmt.Sprintf("%s to %s", first.UTC().Format(timeLayout), last.UTC().Format(timeLayout)),
	}
}

// Uploader stores an image file and returns a public link.
type Uploader interface {
	Upload(ctx context.Context, path string, meta Metadata) (string, error)
}
