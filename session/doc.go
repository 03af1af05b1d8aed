// Package session persists conversation transcripts so a ThinkMachine run can
// be resumed later.
//
// Available stores:
//   - [MemoryStore] keeps transcripts in memory (useful for testing).
//   - [FileStore] persists transcripts as JSON files on disk.
package session
