package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Encoder writes a field stream: one file header followed by one record per
// layer. It does not buffer; wrap the destination in a bufio.Writer for
// small-write heavy chains.
type Encoder struct {
	w     io.Writer
	width Width
	depth int
	index int
	n     int64
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// SetScalarWidth selects the width scalar blocks are written with.
func (e *Encoder) SetScalarWidth(width Width) error {
	if width != WidthNative && !width.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	e.width = width
	return nil
}

// BytesWritten returns the number of bytes written so far.
func (e *Encoder) BytesWritten() int64 { return e.n }

func (e *Encoder) write(p []byte) error {
	n, err := e.w.Write(p)
	e.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

// WriteFileHeader writes the stream header announcing depth layer records.
func (e *Encoder) WriteFileHeader(depth int) error {
	if depth < 1 || depth > MaxDepth {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	var buf [FileHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:], MagicNumber)
	binary.LittleEndian.PutUint16(buf[4:], Version)
	binary.LittleEndian.PutUint32(buf[8:], uint32(depth))
	e.depth = depth
	return e.write(buf[:])
}

// WriteLayer writes the record of the next layer. encode is called twice: once
// to size and checksum the payload, then again to write it after the header.
// It must produce identical bytes both times.
func (e *Encoder) WriteLayer(kind uint16, encode func(*Writer) error) error {
	if e.index >= e.depth {
		return &LayerError{Index: e.index, Kind: kind, Err: fmt.Errorf("%w: header announced %d layers", ErrInvalidDepth, e.depth)}
	}

	probe := NewChecksumWriter(nil)
	if err := runEncode(newWriter(probe, e.width), encode); err != nil {
		return &LayerError{Index: e.index, Kind: kind, Err: err}
	}

	h := probe.Header(kind)
	var hdr [LayerHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], h.Kind)
	binary.LittleEndian.PutUint16(hdr[2:], h.Flags)
	binary.LittleEndian.PutUint32(hdr[4:], h.Checksum)
	binary.LittleEndian.PutUint64(hdr[8:], h.Size)
	if err := e.write(hdr[:]); err != nil {
		return err
	}

	out := NewChecksumWriter(e.w)
	err := runEncode(newWriter(out, e.width), encode)
	e.n += int64(out.Count())
	if err != nil {
		return err
	}
	if out.Count() != probe.Count() || out.Sum() != probe.Sum() {
		return &LayerError{Index: e.index, Kind: kind, Err: fmt.Errorf("%w: payload changed between passes", ErrPayloadSize)}
	}

	e.index++
	return nil
}

func runEncode(w *Writer, encode func(*Writer) error) error {
	if err := encode(w); err != nil {
		return err
	}
	return w.Err()
}

// Decoder reads a field stream written by Encoder.
type Decoder struct {
	r      io.Reader
	header FileHeader
	index  int
	n      int64
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Index returns the position of the next layer record to be read.
func (d *Decoder) Index() int { return d.index }

// Header returns the file header read by ReadFileHeader.
func (d *Decoder) Header() FileHeader { return d.header }

// BytesRead returns the number of bytes consumed so far.
func (d *Decoder) BytesRead() int64 { return d.n }

// ReadFileHeader reads and validates the stream header. An empty stream
// yields io.EOF; a partial header io.ErrUnexpectedEOF.
func (d *Decoder) ReadFileHeader() (FileHeader, error) {
	var buf [FileHeaderSize]byte
	n, err := io.ReadFull(d.r, buf[:])
	d.n += int64(n)
	if err != nil {
		return FileHeader{}, err
	}
	h, err := parseFileHeader(buf[:])
	if err != nil {
		return FileHeader{}, err
	}
	d.header = h
	return h, nil
}

func parseFileHeader(buf []byte) (FileHeader, error) {
	h := FileHeader{
		Magic:    binary.LittleEndian.Uint32(buf[0:]),
		Version:  binary.LittleEndian.Uint16(buf[4:]),
		Flags:    binary.LittleEndian.Uint16(buf[6:]),
		Depth:    binary.LittleEndian.Uint32(buf[8:]),
		Reserved: binary.LittleEndian.Uint32(buf[12:]),
	}
	if h.Magic != MagicNumber {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	if h.Flags != 0 || h.Reserved != 0 {
		return h, fmt.Errorf("%w: file header", ErrReservedBits)
	}
	if h.Depth < 1 || h.Depth > MaxDepth {
		return h, fmt.Errorf("%w: %d", ErrInvalidDepth, h.Depth)
	}
	return h, nil
}

func (d *Decoder) readLayerHeader() (LayerHeader, error) {
	var buf [LayerHeaderSize]byte
	n, err := io.ReadFull(d.r, buf[:])
	d.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return LayerHeader{}, err
	}
	h := LayerHeader{
		Kind:     binary.LittleEndian.Uint16(buf[0:]),
		Flags:    binary.LittleEndian.Uint16(buf[2:]),
		Checksum: binary.LittleEndian.Uint32(buf[4:]),
		Size:     binary.LittleEndian.Uint64(buf[8:]),
	}
	if h.Flags != 0 {
		return h, fmt.Errorf("%w: layer header", ErrReservedBits)
	}
	return h, nil
}

// ReadEnd checks that every declared layer was read and that the stream ends
// after the last one.
func (d *Decoder) ReadEnd() error {
	if d.index != int(d.header.Depth) {
		return fmt.Errorf("%w: read %d of %d layers", ErrInvalidDepth, d.index, d.header.Depth)
	}
	return expectEOF(d.r)
}

// ReadLayer reads the record of the next layer, which must be of the given
// kind, and hands its payload to decode. decode must consume exactly the
// declared payload size.
func (d *Decoder) ReadLayer(kind uint16, decode func(*Reader) error) error {
	if d.index >= int(d.header.Depth) {
		return &LayerError{Index: d.index, Kind: kind, Err: fmt.Errorf("%w: stream declares %d layers", ErrInvalidDepth, d.header.Depth)}
	}

	h, err := d.readLayerHeader()
	if err != nil {
		return &LayerError{Index: d.index, Kind: kind, Err: err}
	}
	if h.Kind != kind {
		return &LayerError{Index: d.index, Kind: kind, Err: fmt.Errorf("%w: expected %d, got %d", ErrKindMismatch, kind, h.Kind)}
	}

	r := &Reader{src: d.r, remaining: h.Size, hash: crc32.New(CRC32Table)}
	err = decode(r)
	if err == nil {
		err = r.Err()
	}
	d.n += int64(h.Size - r.remaining)
	if err != nil {
		return &LayerError{Index: d.index, Kind: kind, Err: err}
	}
	if r.remaining != 0 {
		return &LayerError{Index: d.index, Kind: kind, Err: fmt.Errorf("%w: declared %d bytes, consumed %d", ErrPayloadSize, h.Size, h.Size-r.remaining)}
	}
	if err := verifyChecksum(h.Checksum, r.hash.Sum32()); err != nil {
		return &LayerError{Index: d.index, Kind: kind, Err: err}
	}

	d.index++
	return nil
}

// LayerInfo describes one layer record found by Inspect.
type LayerInfo struct {
	Index  int
	Offset int64 // offset of the layer header from the start of the stream
	Header LayerHeader
}

// StreamInfo summarizes a field stream without decoding any layer.
type StreamInfo struct {
	Header FileHeader
	Layers []LayerInfo
	Size   int64
}

// Inspect walks a field stream using only the self-describing headers. It
// verifies every payload checksum and rejects trailing bytes, so it works
// for streams whose layer kinds the caller does not know.
func Inspect(r io.Reader) (*StreamInfo, error) {
	d := NewDecoder(r)
	h, err := d.ReadFileHeader()
	if err != nil {
		return nil, err
	}

	info := &StreamInfo{Header: h, Layers: make([]LayerInfo, 0, h.Depth)}
	for i := 0; i < int(h.Depth); i++ {
		offset := d.n
		lh, err := d.readLayerHeader()
		if err != nil {
			return info, &LayerError{Index: i, Err: err}
		}
		n, err := skipPayload(r, lh)
		d.n += n
		if err != nil {
			return info, &LayerError{Index: i, Kind: lh.Kind, Err: err}
		}
		info.Layers = append(info.Layers, LayerInfo{Index: i, Offset: offset, Header: lh})
	}
	info.Size = d.n
	return info, expectEOF(r)
}

func expectEOF(r io.Reader) error {
	var probe [1]byte
	n, err := io.ReadFull(r, probe[:])
	if n > 0 {
		return ErrTrailingData
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
