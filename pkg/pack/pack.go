// Package pack assembles outbound frames: a sequence of tagged,
// fixed-size entity payloads, terminated by a NoData tag, compressed with
// zlib and bounded to a maximum wire size. zlib is used here (rather
// than a third-party codec) because it is the mandated wire format for
// this boundary; see DESIGN.md for why no pack dependency could serve
// instead.
package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"heroworld/pkg/entity"
)

// MaxFrameBytes bounds the compressed frame size. A builder that would
// exceed this returns ErrFrameFull rather than silently splitting.
const MaxFrameBytes = 5000

// headerSize is packetID (4) + timestamp (4) bytes, written uncompressed
// ahead of the zlib stream so receivers can dedupe/order frames without
// inflating first.
const headerSize = 8

// ErrFrameFull is returned by Builder.Finish when the finished frame,
// header plus compressed body, exceeds MaxFrameBytes. Builder.Add does
// not return it; Add only rejects payloads of the wrong size.
var ErrFrameFull = fmt.Errorf("pack: frame would exceed %d bytes", MaxFrameBytes)

var writerPool = sync.Pool{
	New: func() interface{} {
		w, _ := zlib.NewWriterLevel(io.Discard, zlib.BestCompression)
		return w
	},
}

// Entry is one typed payload queued into a frame.
type Entry struct {
	Type    entity.DataType
	Payload []byte
}

// Builder accumulates entries for one outbound frame. Not safe for
// concurrent use; callers build one frame per send attempt.
type Builder struct {
	packetID  uint32
	timestamp uint32
	raw       bytes.Buffer
}

// NewBuilder starts a frame with the given packet id and timestamp.
func NewBuilder(packetID, timestamp uint32) *Builder {
	return &Builder{packetID: packetID, timestamp: timestamp}
}

// Add appends one typed entry: a one-byte tag followed by its fixed-size
// payload. The payload must already match entity.PayloadSize(t).
func (b *Builder) Add(e Entry) error {
	want := entity.PayloadSize(e.Type)
	if len(e.Payload) != want {
		return fmt.Errorf("pack: %v payload is %d bytes, want %d", e.Type, len(e.Payload), want)
	}
	b.raw.WriteByte(byte(e.Type))
	b.raw.Write(e.Payload)
	return nil
}

// Len returns the number of raw (pre-compression) bytes queued so far.
func (b *Builder) Len() int {
	return b.raw.Len()
}

// Finish terminates the entry stream with NoData, compresses the whole
// thing, and prepends the uncompressed header. Returns ErrFrameFull if
// the result exceeds MaxFrameBytes.
func (b *Builder) Finish() ([]byte, error) {
	b.raw.WriteByte(byte(entity.NoData))

	zw := writerPool.Get().(*zlib.Writer)
	defer writerPool.Put(zw)

	var compressed bytes.Buffer
	zw.Reset(&compressed)
	if _, err := zw.Write(b.raw.Bytes()); err != nil {
		return nil, fmt.Errorf("pack: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pack: close compressor: %w", err)
	}

	out := make([]byte, headerSize+compressed.Len())
	binary.LittleEndian.PutUint32(out[0:4], b.packetID)
	binary.LittleEndian.PutUint32(out[4:8], b.timestamp)
	copy(out[headerSize:], compressed.Bytes())

	if len(out) > MaxFrameBytes {
		return nil, ErrFrameFull
	}
	return out, nil
}

// Unpack reverses Finish: it decompresses a frame and returns its header
// fields plus the raw tagged-entry stream (still NoData-terminated) for
// the caller to walk with Reader.
func Unpack(frame []byte) (packetID, timestamp uint32, raw []byte, err error) {
	if len(frame) < headerSize {
		return 0, 0, nil, fmt.Errorf("pack: frame shorter than header (%d bytes)", len(frame))
	}
	packetID = binary.LittleEndian.Uint32(frame[0:4])
	timestamp = binary.LittleEndian.Uint32(frame[4:8])

	zr, err := zlib.NewReader(bytes.NewReader(frame[headerSize:]))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("pack: open decompressor: %w", err)
	}
	defer zr.Close()

	raw, err = io.ReadAll(zr)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("pack: decompress: %w", err)
	}
	return packetID, timestamp, raw, nil
}

// Reader walks the tagged-entry stream produced by Finish/Unpack.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps a raw (decompressed) entry stream.
func NewReader(raw []byte) *Reader {
	return &Reader{buf: raw}
}

// Next returns the next entry, or ok=false once NoData is reached or the
// buffer is exhausted.
func (r *Reader) Next() (e Entry, ok bool, err error) {
	if r.off >= len(r.buf) {
		return Entry{}, false, nil
	}
	t := entity.DataType(r.buf[r.off])
	r.off++
	if t == entity.NoData {
		return Entry{}, false, nil
	}
	size := entity.PayloadSize(t)
	if size == 0 {
		return Entry{}, false, fmt.Errorf("pack: unknown data type %d", t)
	}
	if r.off+size > len(r.buf) {
		return Entry{}, false, fmt.Errorf("pack: truncated payload for type %d", t)
	}
	payload := r.buf[r.off : r.off+size]
	r.off += size
	return Entry{Type: t, Payload: payload}, true, nil
}
