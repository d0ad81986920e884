package healthai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore persists trained model artifacts as JSON documents in a
// directory. An absent directory means "not trained"; it is created on the
// first Save.
type ArtifactStore struct {
	basePath string
}

// NewArtifactStore creates a store rooted at path. The directory is not
// required to exist yet.
func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{basePath: path}
}

// Path returns the store's base directory.
func (s *ArtifactStore) Path() string { return s.basePath }

// Save persists an artifact under the given name.
func (s *ArtifactStore) Save(ctx context.Context, name string, artifact any) error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %q: %w", name, err)
	}
	return os.WriteFile(filepath.Join(s.basePath, name+".json"), data, 0644)
}

// Load retrieves an artifact by name and populates target.
func (s *ArtifactStore) Load(ctx context.Context, name string, target any) error {
	data, err := os.ReadFile(filepath.Join(s.basePath, name+".json"))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("artifact %q is corrupt: %w", name, err)
	}
	return nil
}

// Exists reports whether an artifact with the given name is present.
func (s *ArtifactStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, name+".json"))
	return err == nil
}

// List returns the names of all stored artifacts.
func (s *ArtifactStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return names, nil
}

// Delete removes an artifact from the store.
func (s *ArtifactStore) Delete(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(s.basePath, name+".json"))
}
