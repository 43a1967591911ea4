package audio

import (
	"encoding/binary"
	"io"
)

// WriteWAV wraps raw PCM samples in a standard RIFF/WAVE container.
func WriteWAV(w io.Writer, pcm []byte, channels, sampleRateHz, bitsPerSample int) error {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRateHz * blockAlign

	var header struct {
		ChunkID       [4]byte
		ChunkSize     uint32
		Format        [4]byte
		Subchunk1ID   [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Subchunk2ID   [4]byte
		Subchunk2Size uint32
	}

	copy(header.ChunkID[:], "RIFF")
	header.ChunkSize = 36 + uint32(len(pcm))
	copy(header.Format[:], "WAVE")
	copy(header.Subchunk1ID[:], "fmt ")
	header.Subchunk1Size = 16
	header.AudioFormat = 1 // PCM
	header.NumChannels = uint16(channels)
	header.SampleRate = uint32(sampleRateHz)
	header.ByteRate = uint32(byteRate)
	header.BlockAlign = uint16(blockAlign)
	header.BitsPerSample = uint16(bitsPerSample)
	copy(header.Subchunk2ID[:], "data")
	header.Subchunk2Size = uint32(len(pcm))

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}
