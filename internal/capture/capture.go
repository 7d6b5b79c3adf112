// Package capture opens pcap and pcapng files and feeds raw Bluetooth frames
// to the dissector. Format detection is by file magic, not extension.
package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Bluetooth link types from the tcpdump registry. gopacket does not name
// these, so they are defined here.
const (
	// LinkTypeHCIH4 is DLT_BLUETOOTH_HCI_H4: each frame starts with the
	// one-byte UART packet indicator.
	LinkTypeHCIH4 = layers.LinkType(187)
	// LinkTypeHCIH4WithPhdr is DLT_BLUETOOTH_HCI_H4_WITH_PHDR: as above,
	// preceded by a 4-byte big-endian direction word.
	LinkTypeHCIH4WithPhdr = layers.LinkType(201)
	// LinkTypeLELL is DLT_BLUETOOTH_LE_LL: raw LE link-layer packets
	// starting with the access address.
	LinkTypeLELL = layers.LinkType(251)
)

// LoadError wraps any failure to open or read a capture file. It is fatal:
// the run stops and the process exits non-zero.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading capture %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RawFrame is one captured frame. Number counts every frame in the file
// starting at 1, including frames the dissector later ignores, so numbers
// line up with what other capture viewers display.
type RawFrame struct {
	Number    uint32
	Timestamp time.Time
	Data      []byte
}

// frameSource is the common surface of pcapgo's classic and pcapng readers.
type frameSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Reader yields frames from one capture file in file order.
type Reader struct {
	path   string
	file   *os.File
	src    frameSource
	frames uint32
}

var (
	ngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

	pcapMagics = [][]byte{
		{0xa1, 0xb2, 0xc3, 0xd4}, // big-endian, microsecond
		{0xd4, 0xc3, 0xb2, 0xa1}, // little-endian, microsecond
		{0xa1, 0xb2, 0x3c, 0x4d}, // big-endian, nanosecond
		{0x4d, 0x3c, 0xb2, 0xa1}, // little-endian, nanosecond
	}
)

// Open sniffs the file magic and sets up the matching pcapgo reader. Any
// failure, including an unrecognized format, comes back as *LoadError.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	br := bufio.NewReaderSize(f, 1<<16)
	magic, err := br.Peek(4)
	if err != nil {
		_ = f.Close() //nolint:errcheck // Best-effort cleanup in error path
		return nil, &LoadError{Path: path, Err: fmt.Errorf("reading file magic: %w", err)}
	}

	var src frameSource
	switch {
	case bytes.Equal(magic, ngMagic):
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			_ = f.Close() //nolint:errcheck // Best-effort cleanup in error path
			return nil, &LoadError{Path: path, Err: fmt.Errorf("reading pcapng header: %w", err)}
		}
		src = ng
	case isPcapMagic(magic):
		r, err := pcapgo.NewReader(br)
		if err != nil {
			_ = f.Close() //nolint:errcheck // Best-effort cleanup in error path
			return nil, &LoadError{Path: path, Err: fmt.Errorf("reading pcap header: %w", err)}
		}
		src = r
	default:
		_ = f.Close() //nolint:errcheck // Best-effort cleanup in error path
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unrecognized capture format (magic % x)", magic)}
	}

	return &Reader{path: path, file: f, src: src}, nil
}

func isPcapMagic(magic []byte) bool {
	for _, m := range pcapMagics {
		if bytes.Equal(magic, m) {
			return true
		}
	}
	return false
}

// LinkType reports the capture's link type. Per-interface link types in
// pcapng files are not supported; the section's first interface wins.
func (r *Reader) LinkType() layers.LinkType {
	return r.src.LinkType()
}

// Next returns the next frame, io.EOF at end of file, or *LoadError if the
// file is corrupt mid-stream.
func (r *Reader) Next() (RawFrame, error) {
	data, ci, err := r.src.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return RawFrame{}, io.EOF
		}
		return RawFrame{}, &LoadError{Path: r.path, Err: fmt.Errorf("reading frame %d: %w", r.frames+1, err)}
	}

	r.frames++
	return RawFrame{Number: r.frames, Timestamp: ci.Timestamp, Data: data}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing capture file: %w", err)
	}
	return nil
}
