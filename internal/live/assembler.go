package live

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/live-gateway/internal/audio"
)

const (
	defaultSampleRate = 24000
	defaultChannels   = 1
	defaultBitDepth   = 16
)

// AudioFormat describes the PCM stream accumulated by an Assembler. It is
// parsed once from the first fragment's MIME parameters and pinned until
// Clear.
type AudioFormat struct {
	Channels   int
	SampleRate int
	BitDepth   int
}

func defaultAudioFormat() AudioFormat {
	return AudioFormat{
		Channels:   defaultChannels,
		SampleRate: defaultSampleRate,
		BitDepth:   defaultBitDepth,
	}
}

// parseAudioFormat reads parameters from strings like
// "audio/pcm;rate=24000;channels=1". Missing or malformed parameters fall
// back to the service defaults.
func parseAudioFormat(mime string) AudioFormat {
	f := defaultAudioFormat()
	segments := strings.Split(mime, ";")
	for _, param := range segments[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "rate":
			f.SampleRate = n
		case "channels":
			f.Channels = n
		case "bits":
			f.BitDepth = n
		}
	}
	return f
}

// Assembler accumulates ordered PCM fragments of one response stream and
// renders them into a playable WAV container. Render leaves the buffer
// intact so it can be called mid-stream; the owner clears explicitly when
// the audio has been consumed.
type Assembler struct {
	mu        sync.Mutex
	spans     [][]byte
	total     int
	format    AudioFormat
	hasFormat bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Append copies one decoded fragment into the buffer. The first fragment's
// MIME parameters fix the stream format.
func (a *Assembler) Append(data []byte, mimeType string) {
	if len(data) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasFormat {
		a.format = parseAudioFormat(mimeType)
		a.hasFormat = true
	}
	span := make([]byte, len(data))
	copy(span, data)
	a.spans = append(a.spans, span)
	a.total += len(data)
}

// Len is the accumulated payload size in bytes.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

func (a *Assembler) Format() AudioFormat {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasFormat {
		return defaultAudioFormat()
	}
	return a.format
}

// Duration estimates playback time of the accumulated payload.
func (a *Assembler) Duration() time.Duration {
	a.mu.Lock()
	total := a.total
	f := a.format
	if !a.hasFormat {
		f = defaultAudioFormat()
	}
	a.mu.Unlock()

	byteRate := f.SampleRate * f.Channels * f.BitDepth / 8
	if byteRate <= 0 {
		return 0
	}
	return time.Duration(total) * time.Second / time.Duration(byteRate)
}

// Bytes returns the concatenated raw payload without any container.
func (a *Assembler) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, 0, a.total)
	for _, s := range a.spans {
		out = append(out, s...)
	}
	return out
}

// Render wraps the accumulated payload in a WAV container. The buffer is
// not consumed; call Clear once the rendered audio is no longer needed.
func (a *Assembler) Render() ([]byte, error) {
	a.mu.Lock()
	pcm := make([]byte, 0, a.total)
	for _, s := range a.spans {
		pcm = append(pcm, s...)
	}
	f := a.format
	if !a.hasFormat {
		f = defaultAudioFormat()
	}
	a.mu.Unlock()

	return audio.EncodeWAV(pcm, f.SampleRate, f.Channels, f.BitDepth)
}

// Clear drops the accumulated payload and unpins the format.
func (a *Assembler) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.spans = nil
	a.total = 0
	a.format = AudioFormat{}
	a.hasFormat = false
}
