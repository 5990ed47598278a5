package dapple

import (
	"encoding/base64"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool of encode buffers sized for one Kitty chunk
var base64EncoderPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, CHUNK_SIZE)
		return &buf
	},
}

// Base64Encode encodes src with the standard alphabet, reusing pooled
// buffers across calls.
func Base64Encode(src []byte) string {
	bufPtr := base64EncoderPool.Get().(*[]byte)
	defer base64EncoderPool.Put(bufPtr)

	// Grow the pooled buffer only when a payload outsizes it
	encodedLen := base64.StdEncoding.EncodedLen(len(src))
	if cap(*bufPtr) < encodedLen {
		*bufPtr = make([]byte, encodedLen)
	} else {
		*bufPtr = (*bufPtr)[:encodedLen]
	}

	base64.StdEncoding.Encode(*bufPtr, src)
	// string() copies, so the buffer can go back to the pool
	return string(*bufPtr)
}

// EncodeChunks splits data into chunkSize pieces and base64 encodes each.
// When chunkSize is a multiple of 3 the joined chunks equal the encoding of
// the whole payload. With more than one worker the chunks are encoded
// concurrently; the result order never changes.
func EncodeChunks(data []byte, chunkSize, workers int) []string {
	numChunks := (len(data) + chunkSize - 1) / chunkSize
	results := make([]string, numChunks)
	encode := func(idx int) {
		start := idx * chunkSize
		results[idx] = Base64Encode(data[start:min(start+chunkSize, len(data))])
	}

	// two chunks or fewer are encoded inline
	if workers <= 1 || numChunks <= 2 {
		for i := range numChunks {
			encode(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range numChunks {
		g.Go(func() error {
			encode(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
