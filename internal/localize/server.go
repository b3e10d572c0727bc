package localize

import (
	"context"
	"net/url"

	"github.com/vmunix/plexlocalize/internal/plex"
)

//go:generate mockgen -destination=mocks/mock_server.go -package=mocks . Server,Resolver,Recorder,Publisher

// Server is the request capability of one Plex server. *plex.Client
// implements it.
type Server interface {
	Name() string
	Get(ctx context.Context, endpoint string) (*plex.Container, error)
	Put(ctx context.Context, endpoint string, params url.Values) error
	Sections(ctx context.Context) ([]plex.Section, error)
	Ping(ctx context.Context) error
}

// Resolver finds a configured server by name.
type Resolver interface {
	Resolve(name string) (Server, bool)
}

// ServerSet is a Resolver over a fixed set of servers keyed by name.
type ServerSet map[string]Server

// NewServerSet indexes servers by their names.
func NewServerSet(servers ...Server) ServerSet {
	set := make(ServerSet, len(servers))
	for _, s := range servers {
		set[s.Name()] = s
	}
	return set
}

// Resolve returns the server registered under name.
func (s ServerSet) Resolve(name string) (Server, bool) {
	srv, ok := s[name]
	return srv, ok
}
