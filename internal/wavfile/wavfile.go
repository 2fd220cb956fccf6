// Package wavfile is the small shared PCM/WAV helper both the Ripper
// (writing Track_NN.wav/Pregap_NN.wav) and the Builder (streaming their
// bodies back into an image) need. Red Book CD-DA is always 44100 Hz,
// 16-bit, stereo, so there is nothing to negotiate beyond framing.
package wavfile

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	SampleRate    = 44100
	Channels      = 2
	BitsPerSample = 16
)

// Write wraps raw little-endian PCM bytes straight off a CD audio sector
// in a canonical 44-byte WAV header and writes the result to path.
func Write(path string, pcm []byte) error {
	blockAlign := Channels * BitsPerSample / 8
	byteRate := SampleRate * blockAlign

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(header[:]); err != nil {
		return err
	}
	_, err = f.Write(pcm)
	return err
}

// DataOffset locates the byte offset of a WAV file's "data" chunk body,
// so the Builder can stream a ripped track straight into the image
// without re-deriving PCM framing from scratch.
func DataOffset(raw []byte) (int64, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return 0, fmt.Errorf("wavfile: not a RIFF/WAVE file")
	}
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := binary.LittleEndian.Uint32(raw[pos+4 : pos+8])
		if id == "data" {
			return int64(pos + 8), nil
		}
		pos += 8 + int(size)
		if size%2 == 1 {
			pos++
		}
	}
	return 0, fmt.Errorf("wavfile: no data chunk found")
}
