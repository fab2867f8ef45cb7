package library

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-pkgz/lgr"

	"shownotes/internal/metadata"
	"shownotes/internal/models"
)

// EpisodeParser converts one notes file into an episode.
type EpisodeParser interface {
	Parse(raw []byte, name string) (models.Episode, error)
}

// Library reads and parses the notes corpus once and keeps the result for the
// life of the process. There is no refresh: the corpus is static per process.
type Library struct {
	reader   *Reader
	parser   EpisodeParser
	audioDir string
	logger   lgr.L

	mu       sync.Mutex
	loaded   bool
	episodes []models.Episode
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger lgr.L) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithAudioDir enables audio enrichment for episodes whose front matter names
// an "audio" file relative to dir.
func WithAudioDir(dir string) Option {
	return func(l *Library) {
		l.audioDir = dir
	}
}

// NewLibrary creates an unpopulated library. Nothing is read until Load.
func NewLibrary(reader *Reader, parser EpisodeParser, opts ...Option) *Library {
	lib := &Library{
		reader: reader,
		parser: parser,
		logger: lgr.Default(),
	}
	for _, opt := range opts {
		opt(lib)
	}
	if lib.logger == nil {
		lib.logger = lgr.NoOp
	}
	return lib
}

// Load returns every episode ordered by descending number, populating the
// cache on the first successful call. Concurrent first calls wait for a single
// population. A failed load leaves the cache empty.
//
// The returned slice is shared; callers must not modify it.
func (l *Library) Load(ctx context.Context) ([]models.Episode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.episodes, nil
	}

	episodes, err := l.build(ctx)
	if err != nil {
		return nil, err
	}

	l.episodes = episodes
	l.loaded = true
	l.logger.Logf("[INFO] library loaded with %d episodes", len(episodes))
	return l.episodes, nil
}

func (l *Library) build(ctx context.Context) ([]models.Episode, error) {
	sources, err := l.reader.Read(ctx)
	if err != nil {
		return nil, err
	}

	episodes := make([]models.Episode, 0, len(sources))
	seen := make(map[int]string, len(sources))
	for _, src := range sources {
		episode, err := l.parser.Parse(src.Raw, src.Path)
		if err != nil {
			return nil, err
		}
		episode.DisplayNumber = PadNumber(episode.Number)

		if prev, ok := seen[episode.Number]; ok {
			l.logger.Logf("[WARN] episode number %d used by both %s and %s", episode.Number, prev, src.Path)
		}
		seen[episode.Number] = src.Path

		if l.audioDir != "" {
			l.enrichAudio(&episode)
		}

		episodes = append(episodes, episode)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Number > episodes[j].Number
	})

	return episodes, nil
}

// enrichAudio adds duration, album and a fallback title from the episode audio file.
// Probe failures are logged and leave the episode untouched.
func (l *Library) enrichAudio(episode *models.Episode) {
	name, _ := episode.Meta["audio"].(string)
	if name == "" {
		return
	}

	path := filepath.Join(l.audioDir, filepath.FromSlash(name))
	audio, err := metadata.ProbeAudio(path)
	if err != nil {
		l.logger.Logf("[WARN] audio probe for episode %d failed: %v", episode.Number, err)
		return
	}

	meta := make(map[string]any, len(episode.Meta)+3)
	for key, value := range episode.Meta {
		meta[key] = value
	}
	if duration := audio.Duration(); duration != "" {
		meta["duration"] = duration
	}
	if episode.Title() == "" {
		meta["title"] = audio.Label()
	}
	if _, ok := meta["album"]; !ok && audio.Tags.Album != "" {
		meta["album"] = audio.Tags.Album
	}
	episode.Meta = meta
	l.logger.Logf("[DEBUG] audio for episode %d: %s, %d bytes, %d frames", episode.Number, path, audio.SizeBytes, audio.Frames)
}

// PadNumber renders an episode number at least three digits wide.
func PadNumber(number int) string {
	return fmt.Sprintf("%03d", number)
}
