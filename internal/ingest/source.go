package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSource is returned when no listings table can be found.
var ErrNoSource = errors.New("no listings source found")

// Selection modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Source describes where listings tables live. In auto mode the newest file
// in Dir matching Pattern is used; in manual mode File is used as-is.
type Source struct {
	Mode    string
	Dir     string
	Pattern string
	File    string
}

// Resolve returns the path of the table to analyze.
func (s Source) Resolve() (string, error) {
	switch s.Mode {
	case ModeManual:
		return s.manual()
	case ModeAuto, "":
		return Newest(s.Dir, s.Pattern)
	default:
		return "", fmt.Errorf("unknown source mode %q", s.Mode)
	}
}

func (s Source) manual() (string, error) {
	if s.File == "" {
		return "", fmt.Errorf("%w: no file configured", ErrNoSource)
	}
	path := s.File
	if !filepath.IsAbs(path) && s.Dir != "" && !strings.ContainsRune(path, filepath.Separator) {
		path = filepath.Join(s.Dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoSource, path)
		}
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNoSource, path)
	}
	return path, nil
}

// Newest returns the most recently modified regular file in dir whose name
// matches pattern (default "*.csv"). Files with equal modification times are
// ordered by name, the greater name winning.
func Newest(dir, pattern string) (string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: directory %s does not exist", ErrNoSource, dir)
		}
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	var (
		best     string
		bestInfo fs.FileInfo
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if bestInfo == nil ||
			info.ModTime().After(bestInfo.ModTime()) ||
			(info.ModTime().Equal(bestInfo.ModTime()) && e.Name() > best) {
			best, bestInfo = e.Name(), info
		}
	}

	if bestInfo == nil {
		return "", fmt.Errorf("%w: no file matching %s in %s", ErrNoSource, pattern, dir)
	}
	return filepath.Join(dir, best), nil
}
