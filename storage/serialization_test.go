package storage

import (
	"testing"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "minimal chunk",
			chunk: &core.Chunk{
				Id:          core.ID(1),
				Text:        "Hello",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  now,
				InsertedAt:  now,
			},
		},
		{
			name: "chunk with vector and metadata",
			chunk: &core.Chunk{
				Id:          core.ID(2),
				Text:        "Chunk with an embedding",
				Vector:      []float32{0.1, 0.2, 0.3, 0.4, 0.5},
				FileName:    "report.pdf",
				SessionID:   "session-2",
				ContentType: "application/pdf",
				UploadedAt:  now,
				Metadata:    map[string]string{"chunk_index": "3"},
				InsertedAt:  now,
			},
		},
		{
			name: "unicode text",
			chunk: &core.Chunk{
				Id:          core.ID(3),
				Text:        "Hello 世界 🌍 émojis",
				FileName:    "unicode.md",
				SessionID:   "session-3",
				ContentType: "text/markdown",
				UploadedAt:  now,
				InsertedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.chunk.Id, decoded.Id)
			assert.Equal(t, tt.chunk.Text, decoded.Text)
			assert.Equal(t, tt.chunk.FileName, decoded.FileName)
			assert.Equal(t, tt.chunk.SessionID, decoded.SessionID)
			assert.Equal(t, tt.chunk.ContentType, decoded.ContentType)
			assert.True(t, tt.chunk.UploadedAt.Equal(decoded.UploadedAt))
			assert.True(t, tt.chunk.InsertedAt.Equal(decoded.InsertedAt))
			if len(tt.chunk.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.chunk.Vector, decoded.Vector)
			}
			if len(tt.chunk.Metadata) == 0 {
				assert.Empty(t, decoded.Metadata)
			} else {
				assert.Equal(t, tt.chunk.Metadata, decoded.Metadata)
			}
		})
	}
}

func TestUnmarshalChunk_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalChunk(tt.data)
			assert.Error(t, err)
		})
	}
}
