// Package metadata reads technical details of episode audio files.
package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Audio describes an episode audio file.
type Audio struct {
	// Stem is the file name without directory and extension.
	Stem   string
	Tags   Tags
	Length time.Duration
	// Frames is the number of decoded mp3 frames, zero for other formats.
	Frames      int
	BitrateKbps int
	SizeBytes   int64
}

// Tags holds the ID3/MP4/FLAC tags relevant to show notes.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// Duration formats the audio length as HH:MM:SS, or "" when unknown.
func (a Audio) Duration() string {
	return FormatDuration(a.Length)
}

// Label is the tagged title, or the file stem for untagged files.
func (a Audio) Label() string {
	if a.Tags.Title != "" {
		return a.Tags.Title
	}
	return a.Stem
}

// ProbeAudio reads tags and, for mp3 files, the decoded length of the file at path.
// Unreadable tags or frames are not an error; a missing file is.
func ProbeAudio(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Audio{}, err
	}
	if info.IsDir() {
		return Audio{}, fmt.Errorf("%s is a directory", path)
	}

	base := filepath.Base(path)
	audio := Audio{
		Stem:      strings.TrimSuffix(base, filepath.Ext(base)),
		SizeBytes: info.Size(),
		Tags:      readTags(f),
	}

	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return audio, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return audio, nil
	}
	length, frames, err := mp3Length(f)
	if err != nil || length <= 0 {
		return audio, nil
	}
	audio.Length, audio.Frames = length, frames
	audio.BitrateKbps = int(float64(info.Size()*8)/length.Seconds()/1000 + 0.5)
	return audio, nil
}

// FormatDuration renders d rounded to the second as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return ""
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func readTags(r io.ReadSeeker) Tags {
	meta, err := tag.ReadFrom(r)
	if err != nil {
		return Tags{}
	}
	return Tags{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: strings.TrimSpace(meta.Artist()),
		Album:  strings.TrimSpace(meta.Album()),
	}
}

// mp3Length sums the duration of every frame in r. Trailing garbage after the
// last frame ends the scan without an error.
func mp3Length(r io.Reader) (time.Duration, int, error) {
	decoder := mp3.NewDecoder(r)
	var (
		frame   mp3.Frame
		skipped int
		length  time.Duration
		frames  int
	)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return length, frames, nil
			}
			if frames > 0 {
				return length, frames, nil
			}
			return 0, 0, err
		}
		length += frame.Duration()
		frames++
	}
}
