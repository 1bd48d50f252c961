// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - FileName, SessionID and ContentType must not be empty
//   - UploadedAt must be set and not in the future
//
// NOT validated (populated by the storage layer or the ingestion pipeline):
//   - Vector (can be empty until the embedder runs)
//   - ID (0 is valid from database sequences)
//   - InsertedAt (set by the repository)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.FileName == "" {
		return fmt.Errorf("%w: %w: file_name", ErrInvalidChunk, ErrMissingMetadata)
	}

	if chunk.SessionID == "" {
		return fmt.Errorf("%w: %w: session_id", ErrInvalidChunk, ErrMissingMetadata)
	}

	if chunk.ContentType == "" {
		return fmt.Errorf("%w: %w: content_type", ErrInvalidChunk, ErrMissingMetadata)
	}

	if !IsValidTimestamp(chunk.UploadedAt) {
		return fmt.Errorf("%w: %w: uploaded_at", ErrInvalidChunk, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is set and not in the future.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.IsZero() && !ts.After(time.Now())
}
