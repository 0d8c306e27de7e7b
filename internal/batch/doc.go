// Package batch splits a slice into fixed-size chunks and runs a callback per chunk.
//
// Notification fan-out uses it to keep each push request under the edge function's
// recipient limit. Chunks run sequentially (stop on first failure) or with bounded
// concurrency (every chunk runs, failures are joined).
package batch
