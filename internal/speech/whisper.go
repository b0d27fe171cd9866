package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"unsafe"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// WhisperCppTranscriber wraps a whisper.cpp model loaded once at
// construction, grounded on cmd/whisper-go/main.go's load-then-process
// flow. whisper.Context is not safe for concurrent use, so calls are
// serialized behind a mutex; the process-wide transcription load is
// expected to be low relative to chat traffic.
type WhisperCppTranscriber struct {
	mu    sync.Mutex
	model whisper.Model
}

// NewWhisperCppTranscriber loads the model at modelPath once. Loading is
// expensive (seconds), so this is meant to run at process startup, not
// per-request.
func NewWhisperCppTranscriber(modelPath string) (*WhisperCppTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, apperr.New(apperr.KindSpeech, "load whisper model", err)
	}
	return &WhisperCppTranscriber{model: model}, nil
}

// Close releases the underlying model.
func (t *WhisperCppTranscriber) Close() error {
	return t.model.Close()
}

// Transcribe decodes a 16-bit or 32-bit-float mono/stereo WAV clip and
// returns its concatenated segment text. language, when non-empty, is
// passed through to whisper.cpp's language hint.
func (t *WhisperCppTranscriber) Transcribe(ctx context.Context, audio io.Reader, language string) (Transcript, error) {
	samples, err := decodeWAV(audio)
	if err != nil {
		return Transcript{}, apperr.New(apperr.KindSpeech, "decode audio", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Transcript{}, apperr.New(apperr.KindTimeout, "transcription canceled", err)
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return Transcript{}, apperr.New(apperr.KindSpeech, "create whisper context", err)
	}
	if language != "" {
		_ = wctx.SetLanguage(language)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return Transcript{}, apperr.New(apperr.KindSpeech, "process audio", err)
	}

	var text string
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		if text != "" {
			text += " "
		}
		text += segment.Text
	}

	return Transcript{Text: text}, nil
}

type wavHeader struct {
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

// decodeWAV reads a PCM16 or float32 WAV clip into whisper's expected
// mono float32 sample format, grounded on cmd/whisper-go/main.go's
// loadWAVFile.
func decodeWAV(r io.Reader) ([]float32, error) {
	var header wavHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	audioData := make([]byte, header.Subchunk2Size)
	if _, err := io.ReadFull(r, audioData); err != nil {
		return nil, fmt.Errorf("read audio data: %w", err)
	}

	var samples []float32
	switch header.BitsPerSample {
	case 16:
		for i := 0; i+1 < len(audioData); i += 2 {
			sample := int16(binary.LittleEndian.Uint16(audioData[i : i+2]))
			samples = append(samples, float32(sample)/32768.0)
		}
	case 32:
		for i := 0; i+3 < len(audioData); i += 4 {
			bits := binary.LittleEndian.Uint32(audioData[i : i+4])
			samples = append(samples, *(*float32)(unsafe.Pointer(&bits)))
		}
	default:
		return nil, fmt.Errorf("unsupported bits per sample: %d", header.BitsPerSample)
	}

	if header.NumChannels == 2 {
		mono := make([]float32, len(samples)/2)
		for i := range mono {
			mono[i] = (samples[i*2] + samples[i*2+1]) / 2.0
		}
		samples = mono
	}

	return samples, nil
}
