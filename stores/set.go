// Package stores implements the workflow, annotation and preferences stores
// on top of record.Store, plus the one-time import of legacy workflows.
//
// Construct the stores once with NewSet and pass the Set to whatever needs
// them (HTTP handlers, CLI commands).
package stores

import (
	"github.com/sicko7947/wldstore"
)

// Set bundles the domain stores sharing one backend
type Set struct {
	Workflows   *WorkflowStore
	Annotations *AnnotationStore
	Preferences *PreferencesStore
}

// NewSet creates all domain stores on backend with the same options
func NewSet(backend wldstore.Backend, opts ...Option) *Set {
	return &Set{
		Workflows:   NewWorkflowStore(backend, opts...),
		Annotations: NewAnnotationStore(backend, opts...),
		Preferences: NewPreferencesStore(backend, opts...),
	}
}
