package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TimestampLayout is the suffix format of saved result files.
const TimestampLayout = "20060102_150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// JSONStore writes results as indented JSON files named
// <base>_<YYYYMMDD_HHMMSS>.json inside a single folder.
type JSONStore struct {
	dir string
	now func() time.Time
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir, now: time.Now}
}

// Save serializes v and returns the written path. The folder is created if
// missing; an existing file is never overwritten.
func (s *JSONStore) Save(v any, baseName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}

	data, err := marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result: %w", err)
	}

	stem := fmt.Sprintf("%s_%s", cleanBaseName(baseName), s.now().Format(TimestampLayout))
	for attempt := 0; ; attempt++ {
		name := stem + ".json"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.json", stem, attempt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create result file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write result file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write result file: %w", err)
		}

		log.Info().Str("path", path).Msg("result saved")
		return path, nil
	}
}

func marshal(v any) ([]byte, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// cleanBaseName drops the extension and any character unsafe in a file name.
func cleanBaseName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		return "result"
	}
	return name
}
