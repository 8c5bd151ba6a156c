package graph

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/search"
	"github.com/hmans/larder/internal/store"
)

//go:generate go tool gqlgen generate

// ErrNotFound marks resolver errors for records that do not exist.
// Such errors are reported with the NOT_FOUND extension code.
var ErrNotFound = errors.New("not found")

// Resolver is the root resolver for the GraphQL schema.
// Index may be nil, in which case search is unavailable.
type Resolver struct {
	Store  *store.Store
	Assets assets.Storage
	Index  *search.Index
	Log    *logrus.Entry

	opsOnce sync.Once
	ops     registry
}

func (r *Resolver) log() *logrus.Entry {
	if r.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return r.Log
}

// operations returns the registry root fields dispatch through.
func (r *Resolver) operations() registry {
	r.opsOnce.Do(func() {
		if r.ops == nil {
			r.ops = newRegistry(r)
		}
	})
	return r.ops
}
