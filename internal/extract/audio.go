package extract

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"docuchat/internal/models"
)

// Degraded transcription sentinels. They become the document text as-is:
// the recognizer ran, and this is what it had to say.
const (
	NoticeUnintelligible = "Could not understand the audio."
	NoticeUnavailable    = "Speech recognition service unavailable."
)

// extractAudio transcribes an audio clip. Compressed MP3 input is
// transcoded to a mono WAV intermediate first; everything goes through a
// temporary on-disk copy that is removed on every exit path.
func (d *Dispatcher) extractAudio(ctx context.Context, up Upload) (Result, error) {
	tmp, err := os.CreateTemp("", "docuchat-audio-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	mimeType := "audio/wav"
	switch up.Type {
	case TypeMP3:
		err = transcodeMP3(up.Data, tmp)
	case TypeM4A:
		// The recognizer accepts AAC natively, so the container is
		// kept as-is.
		mimeType = "audio/mp4"
		_, err = tmp.Write(up.Data)
	default:
		_, err = tmp.Write(up.Data)
	}
	if err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("prepare audio %s: %w", up.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp audio file: %w", err)
	}

	text, err := d.transcriber.Transcribe(ctx, tmp.Name(), mimeType)
	switch {
	case errors.Is(err, models.ErrUnintelligibleAudio):
		return Result{Text: NoticeUnintelligible, Notice: NoticeUnintelligible}, nil
	case err != nil:
		return Result{Text: NoticeUnavailable, Notice: NoticeUnavailable}, nil
	}
	return Result{Text: text}, nil
}

// transcodeMP3 decodes MP3 data and writes it to out as a mono 16-bit PCM
// WAV. The decoder always yields 16-bit little-endian stereo; the two
// channels are averaged down to one.
func transcodeMP3(data []byte, out *os.File) error {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return fmt.Errorf("read mp3 samples: %w", err)
	}

	samples := make([]int, 0, len(pcm)/4)
	for i := 0; i+3 < len(pcm); i += 4 {
		left := int16(binary.LittleEndian.Uint16(pcm[i:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i+2:]))
		samples = append(samples, int((int32(left)+int32(right))/2))
	}

	enc := wav.NewEncoder(out, dec.SampleRate(), 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{NumChannels: 1, SampleRate: dec.SampleRate()},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
