package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type SettingsFormat string

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

const (
	DefaultHistoryLimit = 50
	defaultTimeoutSecs  = 30
)

type Settings struct {
	DatabasePath   string `json:"database_path"   toml:"database_path"`
	HistoryLimit   int    `json:"history_limit"   toml:"history_limit"`
	RequestTimeout int    `json:"request_timeout" toml:"request_timeout"`
	Listen         string `json:"listen"          toml:"listen"`
}

type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// Dir is the per-user configuration directory; everything the
// dashboard persists outside the database lives here.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "apidash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".apidash"
	}
	return filepath.Join(home, ".apidash")
}

func DefaultSettings() Settings {
	return Settings{
		DatabasePath:   filepath.Join(Dir(), "apidash.db"),
		HistoryLimit:   DefaultHistoryLimit,
		RequestTimeout: defaultTimeoutSecs,
		Listen:         "127.0.0.1:8787",
	}
}

func (s Settings) Timeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return defaultTimeoutSecs * time.Second
	}
	return time.Duration(s.RequestTimeout) * time.Second
}

// NormaliseSettings fills gaps with defaults without touching values
// the user set.
func NormaliseSettings(in Settings) Settings {
	out := DefaultSettings()
	if in.DatabasePath != "" {
		out.DatabasePath = in.DatabasePath
	}
	if in.HistoryLimit > 0 {
		out.HistoryLimit = in.HistoryLimit
	}
	if in.RequestTimeout > 0 {
		out.RequestTimeout = in.RequestTimeout
	}
	if in.Listen != "" {
		out.Listen = in.Listen
	}
	return out
}

// tries loading TOML first, then JSON, then returns defaults if
// neither exists. parse errors fail immediately but missing files just
// skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return NormaliseSettings(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = NormaliseSettings(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial data.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".apidash-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
