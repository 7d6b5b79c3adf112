package capture

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePcapFixture(t *testing.T, lt layers.LinkType, times []time.Time, frames ...[]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, lt))
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     times[i],
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

func writePcapngFixture(t *testing.T, lt layers.LinkType, times []time.Time, frames ...[]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, lt)
	require.NoError(t, err)
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     times[i],
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	require.NoError(t, w.Flush())
	return path
}

func TestOpen_Pcap(t *testing.T) {
	t0 := time.Unix(10, 0)
	t1 := time.Unix(10, 10_000_000)
	path := writePcapFixture(t, LinkTypeHCIH4, []time.Time{t0, t1},
		[]byte{0x04, 0x3e, 0x01, 0x00},
		[]byte{0x02, 0x40, 0x00},
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, LinkTypeHCIH4, r.LinkType())

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), frame.Number)
	assert.True(t, frame.Timestamp.Equal(t0))
	assert.Equal(t, []byte{0x04, 0x3e, 0x01, 0x00}, frame.Data)

	frame, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), frame.Number)
	assert.True(t, frame.Timestamp.Equal(t1))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_Pcapng(t *testing.T) {
	t0 := time.Unix(100, 0)
	path := writePcapngFixture(t, LinkTypeLELL, []time.Time{t0},
		[]byte{0xd6, 0xbe, 0x89, 0x8e, 0x00, 0x00},
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, LinkTypeLELL, r.LinkType())

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), frame.Number)
	assert.Equal(t, []byte{0xd6, 0xbe, 0x89, 0x8e, 0x00, 0x00}, frame.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.pcap"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Path, "does-not-exist.pcap")
}

func TestOpen_UnrecognizedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-capture.bin")
	require.NoError(t, os.WriteFile(path, []byte("GIF89a, definitely not a capture"), 0o600))

	_, err := Open(path)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "unrecognized capture format")
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pcap")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Open(path)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestReader_EmptyCapture(t *testing.T) {
	// A valid header with zero packets is not an error, just an empty feed.
	path := writePcapFixture(t, LinkTypeHCIH4, nil)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
