package transcript

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/koscakluka/roundtable-core/core/audio"
)

const wavHeaderSize = 44

// wavStream appends raw mono audio behind a RIFF/WAVE header whose size
// fields are patched once the final length is known.
type wavStream struct {
	file      *os.File
	dataBytes uint32
}

func newWavStream(path string, encodingInfo audio.EncodingInfo) (*wavStream, error) {
	formatCode, err := wavFormatCode(encodingInfo)
	if err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	bitsPerSample := encodingInfo.Format.BitsPerSample()
	blockAlign := bitsPerSample / 8
	byteRate := encodingInfo.BytesPerSecond()

	header := make([]byte, 0, wavHeaderSize)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on close
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, formatCode)
	header = binary.LittleEndian.AppendUint16(header, 1) // mono
	header = binary.LittleEndian.AppendUint32(header, uint32(encodingInfo.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(byteRate))
	header = binary.LittleEndian.AppendUint16(header, uint16(blockAlign))
	header = binary.LittleEndian.AppendUint16(header, uint16(bitsPerSample))
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on close

	if _, err := file.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write recording header: %w", err)
	}

	return &wavStream{file: file}, nil
}

func (s *wavStream) Write(chunk []byte) error {
	n, err := s.file.Write(chunk)
	s.dataBytes += uint32(n)
	if err != nil {
		return fmt.Errorf("failed to write recording chunk: %w", err)
	}
	return nil
}

// Close patches the RIFF and data chunk sizes and closes the file.
func (s *wavStream) Close() error {
	sizes := make([]byte, 4)

	binary.LittleEndian.PutUint32(sizes, wavHeaderSize-8+s.dataBytes)
	if _, err := s.file.WriteAt(sizes, 4); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to patch recording size: %w", err)
	}

	binary.LittleEndian.PutUint32(sizes, s.dataBytes)
	if _, err := s.file.WriteAt(sizes, 40); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to patch recording data size: %w", err)
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close recording file: %w", err)
	}
	return nil
}

func wavFormatCode(encodingInfo audio.EncodingInfo) (uint16, error) {
	switch encodingInfo.Format {
	case audio.EncodingLinear16:
		return 1, nil
	case audio.EncodingALaw:
		return 6, nil
	case audio.EncodingMulaw:
		return 7, nil
	}
	return 0, fmt.Errorf("unsupported recording encoding %q", encodingInfo.Format.Name())
}
