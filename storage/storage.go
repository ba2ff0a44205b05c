package storage

import (
	"errors"

	linkgraph "github.com/will-x86/linkgraph"
)

var ErrNotFound = errors.New("key not found")

// Storage keeps finished crawl graphs keyed by crawl id.
type Storage interface {
	Set(key string, graph linkgraph.Graph) error
	Get(key string) (*linkgraph.Graph, error)
	Has(key string) bool
	Delete(key string) error
}
