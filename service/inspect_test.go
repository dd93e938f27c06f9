package service

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWav builds a minimal PCM WAV file: 8 kHz, mono, 16-bit, so the
// byte rate is 16000 and the data chunk is seconds*16000 bytes.
func makeWav(t *testing.T, seconds int) []byte {
	t.Helper()

	const byteRate = 16000
	dataSize := uint32(seconds * byteRate)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // mono
	binary.Write(&buf, binary.LittleEndian, uint32(8000))  // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(2))     // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))    // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

func TestProbeDurationWav(t *testing.T) {
	secs, ok := ProbeDuration(makeWav(t, 5))
	require.True(t, ok)
	assert.EqualValues(t, 5, secs)
}

func TestProbeDurationZeroLengthData(t *testing.T) {
	secs, ok := ProbeDuration(makeWav(t, 0))
	require.True(t, ok)
	assert.EqualValues(t, 0, secs, "a zero-length file has a known duration of 0, not unknown")
}

func TestProbeDurationTruncatedData(t *testing.T) {
	full := makeWav(t, 4)

	// Chop off half of the samples; only the bytes actually present count
	truncated := full[:len(full)-2*16000]

	secs, ok := ProbeDuration(truncated)
	require.True(t, ok)
	assert.EqualValues(t, 2, secs)
}

func TestProbeDurationRejectsGarbage(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		[]byte("definitely not audio"),
		[]byte("RIFFxxxxMP3 "),
		bytes.Repeat([]byte{0}, 100),
	} {
		_, ok := ProbeDuration(b)
		assert.False(t, ok)
	}
}
