package audio

import (
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBuffer is an in-memory io.WriteSeeker. The container encoder seeks
// back to patch the RIFF and data chunk sizes after the samples are
// written, which rules out a plain bytes.Buffer.
type wavBuffer struct {
	data []byte
	pos  int
}

func (b *wavBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *wavBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, fmt.Errorf("wav buffer: unsupported whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("wav buffer: negative seek position")
	}
	b.pos = next
	return int64(next), nil
}

// EncodeWAV wraps raw little-endian PCM in a WAV container. The payload is
// carried through byte for byte; the declared data chunk size equals
// len(pcm) exactly.
func EncodeWAV(pcm []byte, sampleRate, channels, bitDepth int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("encode wav: sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("encode wav: channel count %d", channels)
	}

	samples, err := pcmToInts(pcm, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}

	buf := &wavBuffer{}
	enc := wav.NewEncoder(buf, sampleRate, bitDepth, channels, 1)
	ib := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return nil, fmt.Errorf("encode wav: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode wav: finalize container: %w", err)
	}
	return buf.data, nil
}

// pcmToInts unpacks little-endian PCM into per-sample ints the container
// encoder expects. 8-bit WAV is unsigned; wider depths are signed.
func pcmToInts(pcm []byte, bitDepth int) ([]int, error) {
	switch bitDepth {
	case 8:
		out := make([]int, len(pcm))
		for i, b := range pcm {
			out[i] = int(b)
		}
		return out, nil
	case 16:
		if len(pcm)%2 != 0 {
			return nil, fmt.Errorf("pcm length %d not aligned to 16-bit samples", len(pcm))
		}
		out := make([]int, len(pcm)/2)
		for i := range out {
			out[i] = int(int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8))
		}
		return out, nil
	case 24:
		if len(pcm)%3 != 0 {
			return nil, fmt.Errorf("pcm length %d not aligned to 24-bit samples", len(pcm))
		}
		out := make([]int, len(pcm)/3)
		for i := range out {
			v := int32(pcm[i*3]) | int32(pcm[i*3+1])<<8 | int32(pcm[i*3+2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xffffff)
			}
			out[i] = int(v)
		}
		return out, nil
	case 32:
		if len(pcm)%4 != 0 {
			return nil, fmt.Errorf("pcm length %d not aligned to 32-bit samples", len(pcm))
		}
		out := make([]int, len(pcm)/4)
		for i := range out {
			out[i] = int(int32(uint32(pcm[i*4]) |
				uint32(pcm[i*4+1])<<8 |
				uint32(pcm[i*4+2])<<16 |
				uint32(pcm[i*4+3])<<24))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}
