package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// State хранит сериализованную коллекцию в локальном JSON-файле.
type State struct {
	path string
}

func NewState(path string) *State {
	return &State{path: path}
}

func (s *State) Name() string { return "file" }

// Ping: файл доступен всегда, если можно создать каталог.
func (s *State) Ping(ctx context.Context) error {
	return os.MkdirAll(filepath.Dir(s.path), 0o755)
}

func (s *State) Read(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return b, nil
}

func (s *State) Write(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path) // атомарно
}
