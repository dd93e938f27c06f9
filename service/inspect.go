package service

import (
	"encoding/binary"
)

// ProbeDuration derives the duration in whole seconds from raw audio
// bytes without shelling out or calling anything external. Only RIFF/
// WAVE containers are understood; for anything else it reports unknown
// and the caller leaves the record's duration unset.
func ProbeDuration(b []byte) (int64, bool) {
	return wavDuration(b)
}

// wavDuration walks the RIFF chunk list, takes the byte rate from the
// fmt chunk and divides the data chunk size by it.
func wavDuration(b []byte) (int64, bool) {
	if len(b) < 44 {
		return 0, false
	}

	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	var dataSize uint32
	var haveFmt, haveData bool

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := binary.LittleEndian.Uint32(b[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if body+16 > len(b) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(b[body+8 : body+12])
			haveFmt = true
		case "data":
			// The data chunk may be truncated in a partial upload; trust
			// the declared size only up to what is actually present
			dataSize = size
			if remaining := uint32(len(b) - body); size > remaining {
				dataSize = remaining
			}
			haveData = true
		}

		if haveFmt && haveData {
			break
		}

		// Chunks are word-aligned
		off = body + int(size)
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt || !haveData || byteRate == 0 {
		return 0, false
	}

	return int64(dataSize / byteRate), true
}
