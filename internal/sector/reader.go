package sector

import (
	"fmt"
	"io"
	"os"
)

// Reader seeks and reads raw 2352-byte sectors from a BIN image, and is the
// Ripper's only way of touching the host file. Grounded on the teacher's
// pkg/psx/cdreader.go CDReader, generalized to expose decoded sectors
// instead of a flattened byte stream.
type Reader struct {
	file         *os.File
	totalSectors int64
}

// NewReader opens path and reports the total number of whole 2352-byte
// sectors it contains.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{file: f, totalSectors: info.Size() / RawSize}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// TotalSectors reports how many whole raw sectors the image contains.
func (r *Reader) TotalSectors() int64 {
	return r.totalSectors
}

// ReadRaw reads the raw bytes of sector index lbn (0-based from the start
// of the image, not an on-disc LBN).
func (r *Reader) ReadRaw(lbn int64) ([RawSize]byte, error) {
	var raw [RawSize]byte
	if lbn < 0 || lbn >= r.totalSectors {
		return raw, fmt.Errorf("sector: index %d out of bounds (total %d)", lbn, r.totalSectors)
	}
	if _, err := r.file.Seek(lbn*RawSize, io.SeekStart); err != nil {
		return raw, err
	}
	if _, err := io.ReadFull(r.file, raw[:]); err != nil {
		return raw, err
	}
	return raw, nil
}

// ReadDecoded reads and decodes sector index lbn in one step.
func (r *Reader) ReadDecoded(lbn int64) (DecodeResult, error) {
	raw, err := r.ReadRaw(lbn)
	if err != nil {
		return DecodeResult{}, err
	}
	return DecodeMode2(raw)
}

// ReadUserData reads count sectors starting at lbn and concatenates their
// user-data payload (2048 bytes for Form 1, 2324 for Form 2), the way a
// file extent is read back into host bytes.
func (r *Reader) ReadUserData(lbn int64, count int) ([]byte, error) {
	out := make([]byte, 0, count*Form1DataSize)
	for i := 0; i < count; i++ {
		dec, err := r.ReadDecoded(lbn + int64(i))
		if err != nil {
			return nil, fmt.Errorf("sector: reading extent sector %d: %w", lbn+int64(i), err)
		}
		out = append(out, dec.Payload...)
	}
	return out, nil
}
