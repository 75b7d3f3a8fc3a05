package compilecache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// Magic starts every cache file.
const Magic = "OLCC"

// FormatVersion is the version written by Encode.
const FormatVersion uint32 = 2

const legacyVersion uint32 = 1

// maxField bounds decoded string and blob lengths.
const maxField = 1 << 30

var (
	// ErrBadMagic is returned for files that do not start with Magic.
	ErrBadMagic = errors.New("compilecache: bad magic")
	// ErrUnsupportedVersion is returned for unknown format versions.
	ErrUnsupportedVersion = errors.New("compilecache: unsupported format version")
	// ErrTruncated is returned when a file ends inside a record.
	ErrTruncated = errors.New("compilecache: truncated record")
)

// Result is one compiled artifact and its bookkeeping.
type Result struct {
	SourcePath        string
	CompiledPath      string
	Data              []byte
	SourceHash        uint64
	CompilationTime   time.Time
	CompilerVersion   string
	ErrorMessage      string
	IsValid           bool
	CompilationTimeMs float64
	SourceSize        uint64
	CompiledSize      uint64
}

// Equal reports whether r and o hold the same values. Times compare by
// instant.
func (r *Result) Equal(o *Result) bool {
	if r == nil || o == nil {
		return r == o
	}

	return r.SourcePath == o.SourcePath &&
		r.CompiledPath == o.CompiledPath &&
		bytes.Equal(r.Data, o.Data) &&
		r.SourceHash == o.SourceHash &&
		r.CompilationTime.Equal(o.CompilationTime) &&
		r.CompilerVersion == o.CompilerVersion &&
		r.ErrorMessage == o.ErrorMessage &&
		r.IsValid == o.IsValid &&
		math.Float64bits(r.CompilationTimeMs) == math.Float64bits(o.CompilationTimeMs) &&
		r.SourceSize == o.SourceSize &&
		r.CompiledSize == o.CompiledSize
}

func timeTicks(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}

	return uint64(t.UnixNano())
}

func ticksTime(ticks uint64) time.Time {
	if ticks == 0 {
		return time.Time{}
	}

	return time.Unix(0, int64(ticks))
}

// Encode serialises r in the current format. Multi-byte fields are little
// endian; strings and blobs carry a u32 length prefix.
func Encode(r *Result) ([]byte, error) {
	w := &writer{order: binary.LittleEndian}

	w.raw([]byte(Magic))
	w.u32(FormatVersion)
	w.str(r.SourcePath)
	w.str(r.CompiledPath)
	w.blob(r.Data)
	w.u64(r.SourceHash)
	w.u64(timeTicks(r.CompilationTime))
	w.str(r.CompilerVersion)
	w.str(r.ErrorMessage)
	w.boolean(r.IsValid)
	w.u64(math.Float64bits(r.CompilationTimeMs))
	w.u64(r.SourceSize)
	w.u64(r.CompiledSize)

	if w.err != nil {
		return nil, w.err
	}

	return w.buf.Bytes(), nil
}

// Decode parses a cache file. Version 1 files, written with host byte
// order, u64 length prefixes and a float32 duration, are accepted too.
func Decode(data []byte) (*Result, error) {
	if len(data) < len(Magic)+4 {
		return nil, ErrTruncated
	}

	if string(data[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}

	header := data[len(Magic) : len(Magic)+4]
	body := data[len(Magic)+4:]

	switch {
	case binary.LittleEndian.Uint32(header) == FormatVersion:
		return decodeV2(body)
	case binary.NativeEndian.Uint32(header) == legacyVersion:
		return decodeV1(body)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, binary.LittleEndian.Uint32(header))
	}
}

func decodeV2(body []byte) (*Result, error) {
	rd := &reader{r: bytes.NewReader(body), order: binary.LittleEndian}
	r := &Result{}

	r.SourcePath = rd.str32()
	r.CompiledPath = rd.str32()
	r.Data = rd.blob32()
	r.SourceHash = rd.u64()
	r.CompilationTime = ticksTime(rd.u64())
	r.CompilerVersion = rd.str32()
	r.ErrorMessage = rd.str32()
	r.IsValid = rd.boolean()
	r.CompilationTimeMs = math.Float64frombits(rd.u64())
	r.SourceSize = rd.u64()
	r.CompiledSize = rd.u64()

	if rd.err != nil {
		return nil, rd.err
	}

	return r, nil
}

func decodeV1(body []byte) (*Result, error) {
	rd := &reader{r: bytes.NewReader(body), order: binary.NativeEndian}
	r := &Result{}

	r.SourcePath = rd.str64()
	r.CompiledPath = rd.str64()
	r.Data = rd.blob64()
	r.SourceHash = rd.u64()
	r.CompilationTime = ticksTime(rd.u64())
	r.CompilerVersion = rd.str64()
	r.ErrorMessage = rd.str64()
	r.IsValid = rd.boolean()
	r.CompilationTimeMs = float64(math.Float32frombits(rd.u32()))
	r.SourceSize = rd.u64()
	r.CompiledSize = rd.u64()

	if rd.err != nil {
		return nil, rd.err
	}

	return r, nil
}

type writer struct {
	buf   bytes.Buffer
	order binary.AppendByteOrder
	err   error
}

func (w *writer) raw(b []byte) {
	if w.err == nil {
		_, w.err = w.buf.Write(b)
	}
}

func (w *writer) u32(v uint32) { w.raw(w.order.AppendUint32(nil, v)) }

func (w *writer) u64(v uint64) { w.raw(w.order.AppendUint64(nil, v)) }

func (w *writer) boolean(v bool) {
	if v {
		w.raw([]byte{1})
		return
	}

	w.raw([]byte{0})
}

func (w *writer) blob(b []byte) {
	if uint64(len(b)) > math.MaxUint32 {
		w.err = fmt.Errorf("compilecache: field of %d bytes too large", len(b))
		return
	}

	w.u32(uint32(len(b)))
	w.raw(b)
}

func (w *writer) str(s string) { w.blob([]byte(s)) }

type reader struct {
	r     *bytes.Reader
	order binary.ByteOrder
	err   error
}

func (rd *reader) read(n uint64) []byte {
	if rd.err != nil {
		return nil
	}

	if n > maxField || n > uint64(rd.r.Len()) {
		rd.err = ErrTruncated
		return nil
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(rd.r, b); err != nil {
		rd.err = ErrTruncated
		return nil
	}

	return b
}

func (rd *reader) u32() uint32 {
	b := rd.read(4)
	if b == nil {
		return 0
	}

	return rd.order.Uint32(b)
}

func (rd *reader) u64() uint64 {
	b := rd.read(8)
	if b == nil {
		return 0
	}

	return rd.order.Uint64(b)
}

func (rd *reader) boolean() bool {
	b := rd.read(1)
	if b == nil {
		return false
	}

	return b[0] != 0
}

func (rd *reader) blob32() []byte { return rd.read(uint64(rd.u32())) }

func (rd *reader) blob64() []byte { return rd.read(rd.u64()) }

func (rd *reader) str32() string { return string(rd.blob32()) }

func (rd *reader) str64() string { return string(rd.blob64()) }
