package domain

import (
	"fmt"
	"time"
)

// Project is a logical corpus namespace. It owns assets and chunks and
// maps 1:1 to one dense-index collection and one sparse-index file, both
// keyed by project id. Projects are created on first reference and deleted
// only by an explicit reset.
type Project struct {
	// ID is assigned by the store on insert.
	ID int64

	// Name is the user-facing project key used for get-or-create lookup.
	Name string

	// CreatedAt is when the project was first referenced.
	CreatedAt time.Time
}

// CollectionName derives the dense-index collection name for a project.
// The embedding dimensionality is part of the name so that changing the
// embedding model never mixes incompatible vector spaces under one name.
func CollectionName(projectID int64, vectorSize int) string {
	return fmt.Sprintf("collection_%d_%d", vectorSize, projectID)
}
