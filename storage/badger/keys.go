package badger

import (
	"encoding/binary"

	"github.com/poiesic/retrievit/core"
)

// Key prefixes for different data types
const (
	chunkPrefix        = "chk"
	chunkSessionPrefix = "chks"
	chunkFilePrefix    = "chkf"
	chunkIDSeq         = "chkseq"
)

// makeChunkKey generates a key for a chunk by ID.
// IDs come from a sequence and the ID suffix is BigEndian, so iterating the
// chunk prefix yields chunks in insertion order.
func makeChunkKey(id core.ID) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkSessionKey generates a composite key for the session index.
// Format: prefix:sessionID:id
func makeChunkSessionKey(sessionID string, id core.ID) []byte {
	prefix := []byte(chunkSessionPrefix + ":" + sessionID + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkSessionPrefix generates the iteration prefix for a session.
func makeChunkSessionPrefix(sessionID string) []byte {
	return []byte(chunkSessionPrefix + ":" + sessionID + ":")
}

// makeChunkFileKey generates a composite key for the file-name index.
// Format: prefix:fileName:id
func makeChunkFileKey(fileName string, id core.ID) []byte {
	prefix := []byte(chunkFilePrefix + ":" + fileName + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkFilePrefix generates the iteration prefix for a file name.
func makeChunkFilePrefix(fileName string) []byte {
	return []byte(chunkFilePrefix + ":" + fileName + ":")
}
