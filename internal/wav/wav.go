package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Info describes a PCM WAV file.
type Info struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataSize      int64
}

// Duration returns the playback length in seconds.
func (i Info) Duration() float64 {
	bytesPerSec := i.SampleRate * i.Channels * i.BitsPerSample / 8
	if bytesPerSec == 0 {
		return 0
	}
	return float64(i.DataSize) / float64(bytesPerSec)
}

// ReadInfo parses the RIFF header and returns format and data size.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// RIFF header (12 bytes)
	riffHeader := make([]byte, 12)
	if _, err := io.ReadFull(f, riffHeader); err != nil {
		return Info{}, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return Info{}, fmt.Errorf("not a valid WAV file")
	}

	var info Info
	var foundFmt bool
	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Info{}, fmt.Errorf("data chunk not found")
			}
			return Info{}, fmt.Errorf("failed to read chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		switch chunkID {
		case "fmt ":
			fmtData := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, fmtData); err != nil {
				return Info{}, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if len(fmtData) >= 16 {
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
			}
			foundFmt = true
		case "data":
			if !foundFmt {
				return Info{}, fmt.Errorf("data chunk before fmt chunk")
			}
			info.DataSize = chunkSize
			return info, nil
		default:
			// LIST, INFO etc.
			if _, err := f.Seek(chunkSize, io.SeekCurrent); err != nil {
				return Info{}, fmt.Errorf("failed to skip chunk %s: %w", chunkID, err)
			}
		}

		// word-aligned chunks
		if chunkSize%2 != 0 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return Info{}, err
			}
		}
	}
}

// WriteSilence writes a mono 16-bit PCM file of the given length.
func WriteSilence(path string, seconds float64, sampleRate int) (Info, error) {
	if sampleRate <= 0 {
		return Info{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if seconds < 0 {
		seconds = 0
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Info{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	info := Info{Channels: 1, SampleRate: sampleRate, BitsPerSample: 16}
	samples := int64(seconds * float64(sampleRate))
	info.DataSize = samples * 2

	f, err := os.Create(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeHeader(w, info); err != nil {
		return Info{}, err
	}
	zeros := make([]byte, 4096)
	for remaining := info.DataSize; remaining > 0; {
		n := int64(len(zeros))
		if remaining < n {
			n = remaining
		}
		if _, err := w.Write(zeros[:n]); err != nil {
			return Info{}, fmt.Errorf("failed to write samples: %w", err)
		}
		remaining -= n
	}
	if err := w.Flush(); err != nil {
		return Info{}, fmt.Errorf("failed to flush: %w", err)
	}
	return info, f.Close()
}

func writeHeader(w io.Writer, info Info) error {
	blockAlign := info.Channels * info.BitsPerSample / 8
	byteRate := info.SampleRate * blockAlign

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+info.DataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(info.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(info.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(info.BitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(info.DataSize))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}
