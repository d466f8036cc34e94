// Package buffers pools the copy buffers used by file transfers.
package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/driveman/driveman/internal/constants"
)

// allocations counts buffers created since startup. Batches run one item
// at a time, so the pool's value is reuse across the items of a batch;
// a long upload session should settle at a single allocation.
var allocations atomic.Int64

var pool = &sync.Pool{
	New: func() interface{} {
		allocations.Add(1)
		buf := make([]byte, constants.CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer retrieves a transfer copy buffer from the pool.
// Return it with PutCopyBuffer when the copy is done.
//
// Usage:
//
//	buf := buffers.GetCopyBuffer()
//	defer buffers.PutCopyBuffer(buf)
//	_, err := io.CopyBuffer(dst, src, *buf)
func GetCopyBuffer() *[]byte {
	return pool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool for reuse. Only full-size
// buffers are pooled. The content is cleared first; transfers may carry
// sensitive file data that must not linger across uses.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.CopyBufferSize {
		clear(*buf)
		pool.Put(buf)
	}
}

// Allocations reports how many buffers have been created since startup.
func Allocations() int64 {
	return allocations.Load()
}
