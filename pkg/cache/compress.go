package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// compressor runs gzip compress/decompress on a bounded worker pool so a
// burst of large Set calls cannot spawn unbounded goroutines. Set
// compresses only values over the configured threshold (§4.2), and Get
// decompresses such entries through the same pool.
type compressor struct {
	sem *semaphore.Weighted
}

func newCompressor() *compressor {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		n = 2
	}
	return &compressor{sem: semaphore.NewWeighted(int64(n))}
}

func (c *compressor) compress(ctx context.Context, raw []byte) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		_ = gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *compressor) decompress(ctx context.Context, compressed []byte) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
