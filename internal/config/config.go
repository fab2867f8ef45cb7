// Package config loads the service configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"shownotes/internal/library"
	"shownotes/internal/notes"
)

const (
	defaultListenAddr   = "127.0.0.1:3333"
	defaultContentDir   = "shows"
	defaultWriteTimeout = 30 * time.Second
)

// Conf is the YAML configuration file layout.
type Conf struct {
	Server struct {
		Listen       string        `yaml:"listen"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Content struct {
		Dir         string `yaml:"dir"`
		Pattern     string `yaml:"pattern"`
		NotesPrefix string `yaml:"notes_prefix"`
		SafeMode    bool   `yaml:"safe_mode"`
	} `yaml:"content"`
	Audio struct {
		Dir string `yaml:"dir"`
	} `yaml:"audio"`
}

// Default returns the configuration used when no file is given.
func Default() *Conf {
	res := &Conf{}
	res.applyDefaults()
	return res
}

// Load reads the config file and fills in defaults for everything it omits.
func Load(fileName string) (*Conf, error) {
	data, err := os.ReadFile(fileName) // nolint
	if err != nil {
		return nil, err
	}

	res := &Conf{}
	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, err
	}
	res.applyDefaults()
	return res, nil
}

func (c *Conf) applyDefaults() {
	if strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = defaultListenAddr
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if strings.TrimSpace(c.Content.Dir) == "" {
		c.Content.Dir = defaultContentDir
	}
	if strings.TrimSpace(c.Content.Pattern) == "" {
		c.Content.Pattern = library.DefaultPattern
	}
	if strings.TrimSpace(c.Content.NotesPrefix) == "" {
		c.Content.NotesPrefix = notes.DefaultNotesPrefix
	}
}

// ResolveDir expands a leading "~" and returns an absolute path to an existing
// directory. The directory is never created.
func ResolveDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("empty directory path")
	}

	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New(abs + " is not a directory")
	}
	return abs, nil
}
