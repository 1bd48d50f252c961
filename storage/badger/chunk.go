package badger

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// PutChunks appends one or more chunks to storage.
// The whole batch is validated before anything is written.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			chunk.Id = core.ID(nextID)
			chunk.InsertedAt = time.Now().UTC()

			if err := r.writeChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// UpdateChunks rewrites existing chunks, keeping their IDs and indexes.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)
			old, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Session and file name are immutable, so the indexes stay valid.
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetAllChunks retrieves every stored chunk in insertion order.
func (r *ChunkRepository) GetAllChunks(ctx context.Context) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetChunksBySession retrieves the chunks of one session in insertion order.
func (r *ChunkRepository) GetChunksBySession(ctx context.Context, sessionID string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunks, err := r.readIndexedChunks(tx, makeChunkSessionPrefix(sessionID))
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			// Guard against sessions whose ID is a prefix of another
			if chunk.SessionID == sessionID {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetChunksByFileNames retrieves the chunks of the given files in insertion order.
func (r *ChunkRepository) GetChunksByFileNames(ctx context.Context, names ...string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, name := range names {
			chunks, err := r.readIndexedChunks(tx, makeChunkFilePrefix(name))
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				if chunk.FileName == name {
					results = append(results, chunk)
				}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Per-name index scans come back grouped by file; IDs are assigned by a
	// monotonic sequence, so sorting restores global insertion order.
	slices.SortFunc(results, func(a, b *core.Chunk) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return results, nil
}

// DeleteChunksBySession removes all chunks of a session.
// Deleting an unknown session returns 0, not an error.
func (r *ChunkRepository) DeleteChunksBySession(ctx context.Context, sessionID string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunks, err := r.readIndexedChunks(tx, makeChunkSessionPrefix(sessionID))
		if err != nil {
			return err
		}

		for _, chunk := range chunks {
			if chunk.SessionID != sessionID {
				continue
			}
			if err := tx.Delete(makeChunkSessionKey(chunk.SessionID, chunk.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkFileKey(chunk.FileName, chunk.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(chunk.Id)); err != nil {
				return err
			}
			count++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// writeChunk stores the primary record and both secondary indexes.
func (r *ChunkRepository) writeChunk(tx *badger.Txn, chunk *core.Chunk) error {
	if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
		return err
	}
	if err := tx.Set(makeChunkSessionKey(chunk.SessionID, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
		return err
	}
	return tx.Set(makeChunkFileKey(chunk.FileName, chunk.Id), storage.MarshalID(chunk.Id))
}

// readChunk reads a single chunk by key. Returns nil, nil when absent.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// readIndexedChunks resolves all chunks referenced by an index prefix.
func (r *ChunkRepository) readIndexedChunks(tx *badger.Txn, prefix []byte) ([]*core.Chunk, error) {
	var ids []core.ID

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			iter.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	iter.Close()

	chunks := make([]*core.Chunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := r.readChunk(tx, makeChunkKey(id))
		if err != nil {
			return nil, err
		}
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
