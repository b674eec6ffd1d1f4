package blobstore

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Stored objects start with a one-byte format tag so Open can tell raw
// payloads from compressed ones regardless of how the store is configured.
const (
	blobFormatRaw  byte = 0
	blobFormatZstd byte = 1
)

// SpeedFastest keeps Put cheap: every entry write lands here, while reads
// are comparatively rare.
func newCompressor(dst io.Writer) (*zstd.Encoder, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
}

// decompressReader streams a stored blob back to plaintext and closes both
// the decoder and the underlying source.
type decompressReader struct {
	dec *zstd.Decoder
	src io.Closer
}

func newDecompressReader(src io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return &decompressReader{dec: dec, src: src}, nil
}

func (r *decompressReader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *decompressReader) Close() error {
	r.dec.Close()
	return r.src.Close()
}
