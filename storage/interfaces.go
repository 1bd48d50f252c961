package storage

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// ChunkRepository provides operations for managing document chunks.
// Implementations must be thread-safe and support concurrent access.
//
// The repository is the single source of truth for chunk lifetime. The dense
// and sparse indexes hold derived, rebuildable projections of its contents.
type ChunkRepository interface {
	// PutChunks appends one or more chunks to storage.
	// Each chunk is validated first; a validation failure rejects the whole
	// batch and nothing is written.
	// Generates new IDs from sequence and sets the InsertedAt timestamp.
	// Returns the chunks with generated IDs and timestamps populated.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks rewrites existing chunks in place, keeping their IDs.
	// Used when the collection is re-embedded with a new model.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetAllChunks retrieves every stored chunk in insertion order.
	GetAllChunks(ctx context.Context) ([]*core.Chunk, error)

	// GetChunksBySession retrieves the chunks whose SessionID matches,
	// in insertion order. An unknown session yields an empty slice, not an error.
	GetChunksBySession(ctx context.Context, sessionID string) ([]*core.Chunk, error)

	// GetChunksByFileNames retrieves the chunks whose FileName is one of the
	// given names, in insertion order.
	GetChunksByFileNames(ctx context.Context, names ...string) ([]*core.Chunk, error)

	// DeleteChunksBySession removes all chunks of a session and returns how
	// many were removed. Deleting an unknown session is a valid no-op that
	// returns 0.
	DeleteChunksBySession(ctx context.Context, sessionID string) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
