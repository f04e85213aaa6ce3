// Package hasher computes the content digest paired with every transfer.
//
// The digest is a streaming 64-bit xxhash over the file's bytes. Chunks are
// folded in read order and the result depends only on the byte sequence, so
// peers may hash with any chunk size and still agree.
package hasher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DefaultChunkSize matches the transfer chunk size used on the wire.
const DefaultChunkSize = 1024

// ErrHash marks failures while computing a digest. Callers only hash files
// they have just written or read, so these are treated as fatal.
var ErrHash = errors.New("hash computation failed")

// Digest is a fixed-width content hash.
type Digest uint64

// String renders the digest as decimal text, as sent on the wire.
func (d Digest) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// Reader hashes r to exhaustion, reading chunkSize bytes at a time.
func Reader(r io.Reader, chunkSize int) (Digest, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	h := xxhash.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// xxhash.Digest.Write never returns an error
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: read: %v", ErrHash, err)
		}
	}
	return Digest(h.Sum64()), nil
}

// File opens path and hashes its full contents.
func File(path string, chunkSize int) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: unable to open %s: %v", ErrHash, path, err)
	}
	defer f.Close()

	d, err := Reader(f, chunkSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Bytes hashes an in-memory buffer. It agrees with File for the same content.
func Bytes(b []byte) Digest {
	return Digest(xxhash.Sum64(b))
}
