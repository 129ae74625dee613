package gallery

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// Marshal encodes the dataset the way it is written to disk.
func Marshal(d Dataset) ([]byte, error) {
	if d == nil {
		d = Dataset{}
	}
	return json.Marshal(d)
}

// Write serializes the dataset to path, creating the file or truncating any
// previous artifact. There is no merge with the previous run's content.
func Write(path string, d Dataset) error {
	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write artifact: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}

	return file.Close()
}

// Read loads a dataset previously written with Write.
func Read(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	return Unmarshal(data)
}

// Unmarshal decodes an artifact produced by Marshal.
func Unmarshal(data []byte) (Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	if d == nil {
		d = Dataset{}
	}
	return d, nil
}
