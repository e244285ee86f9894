package patchwork

import "context"

// Project is one project registered on the remote service.
type Project struct {
	ID       int    `json:"id"`
	LinkName string `json:"linkname"`
	Name     string `json:"name"`
}

// UpdateFields carries the mutable subset of a patch record for
// Client.UpdatePatch. Nil pointers mean "leave unchanged".
type UpdateFields struct {
	State     *string `json:"state,omitempty"`
	Archived  *bool   `json:"archived,omitempty"`
	CommitRef *string `json:"commit_ref,omitempty"`
}

// Client is the remote service boundary. Implementations own all
// network, session, and auth concerns; callers must not issue
// concurrent calls against one client.
type Client interface {
	// ListPatches fetches one page of raw records matching params.
	// Pages are numbered from zero. hasMore reports whether another
	// page exists after this one.
	ListPatches(ctx context.Context, params map[string]string, page int) (records []Raw, hasMore bool, err error)

	// GetPatch fetches a single raw record by id.
	// Returns ErrNotFound (wrapped) for unknown ids.
	GetPatch(ctx context.Context, id int) (Raw, error)

	// UpdatePatch mutates the given fields of a patch record.
	UpdatePatch(ctx context.Context, id int, fields UpdateFields) error

	// GetMbox fetches the mbox-formatted content of a patch.
	GetMbox(ctx context.Context, id int) (string, error)

	// ListProjects fetches all projects known to the server.
	ListProjects(ctx context.Context) ([]Project, error)
}
