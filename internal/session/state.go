package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/sqlharness/internal/conf"
)

// ResourceKind classifies session resources.
type ResourceKind string

const (
	ResourceJar     ResourceKind = "JAR"
	ResourceFile    ResourceKind = "FILE"
	ResourceArchive ResourceKind = "ARCHIVE"
)

// ParseResourceKind maps the singular or plural statement keyword to a kind.
func ParseResourceKind(word string) (ResourceKind, bool) {
	switch word {
	case "JAR", "JARS":
		return ResourceJar, true
	case "FILE", "FILES":
		return ResourceFile, true
	case "ARCHIVE", "ARCHIVES":
		return ResourceArchive, true
	}
	return "", false
}

// State is the context an execution runs with.
// Resource methods are safe for concurrent use.
type State struct {
	ID       string
	ParentID string
	Conf     *conf.Configuration

	mu        sync.Mutex
	resources map[ResourceKind]map[string]struct{}
}

// New creates a root State bound to c.
func New(c *conf.Configuration) *State {
	return &State{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Conf:      c,
		resources: make(map[ResourceKind]map[string]struct{}),
	}
}

// Derive creates a child State sharing the configuration and holding a copy
// of the parent's resources.
func (s *State) Derive() *State {
	child := New(s.Conf)
	child.ParentID = s.ID

	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, set := range s.resources {
		cp := make(map[string]struct{}, len(set))
		for r := range set {
			cp[r] = struct{}{}
		}
		child.resources[kind] = cp
	}
	return child
}

// AddResource registers a resource path. Duplicates are ignored.
func (s *State) AddResource(kind ResourceKind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.resources[kind]
	if !ok {
		set = make(map[string]struct{})
		s.resources[kind] = set
	}
	set[path] = struct{}{}
}

// Resources returns the sorted resource paths of kind.
func (s *State) Resources(kind ResourceKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.resources[kind]))
	for r := range s.resources[kind] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// DeleteResources drops every resource of kind and returns how many there were.
func (s *State) DeleteResources(kind ResourceKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.resources[kind])
	delete(s.resources, kind)
	return n
}

// ResourceCount returns the total number of resources across all kinds.
func (s *State) ResourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, set := range s.resources {
		n += len(set)
	}
	return n
}
