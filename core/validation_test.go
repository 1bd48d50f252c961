package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChunk(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name: "valid chunk",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello world",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid chunk with empty vector",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello world",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  validTime,
				Vector:      nil,
			},
			wantErr: nil,
		},
		{
			name: "valid chunk with ID 0",
			chunk: &Chunk{
				Id:          0,
				Text:        "Hello world",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name: "empty text",
			chunk: &Chunk{
				Id:          1,
				Text:        "",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  validTime,
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "missing file name",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello",
				FileName:    "",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  validTime,
			},
			wantErr: ErrMissingMetadata,
		},
		{
			name: "missing session ID",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello",
				FileName:    "notes.txt",
				SessionID:   "",
				ContentType: "text/plain",
				UploadedAt:  validTime,
			},
			wantErr: ErrMissingMetadata,
		},
		{
			name: "missing content type",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "",
				UploadedAt:  validTime,
			},
			wantErr: ErrMissingMetadata,
		},
		{
			name: "future upload time",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
				UploadedAt:  futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name: "zero upload time",
			chunk: &Chunk{
				Id:          1,
				Text:        "Hello",
				FileName:    "notes.txt",
				SessionID:   "session-1",
				ContentType: "text/plain",
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateChunk() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}

			if !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("ValidateChunk() error = %v, want wrapped %v", err, ErrInvalidChunk)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{
			name: "past timestamp",
			ts:   time.Now().Add(-1 * time.Hour),
			want: true,
		},
		{
			name: "current time (approximately)",
			ts:   time.Now(),
			want: true,
		},
		{
			name: "future timestamp",
			ts:   time.Now().Add(1 * time.Hour),
			want: false,
		},
		{
			name: "zero time",
			ts:   time.Time{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidTimestamp(tt.ts)
			if got != tt.want {
				t.Errorf("IsValidTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
