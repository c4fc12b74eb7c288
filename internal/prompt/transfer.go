package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

const invalidFormat = "Invalid file format: expected folders and prompts arrays"

// ValidationError reports an import file with the wrong shape.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Bundle is the export file layout.
type Bundle struct {
	Folders []models.Folder `json:"folders"`
	Prompts Collection      `json:"prompts"`
}

// Export serializes folders and prompts as indented JSON.
func Export(folders []models.Folder, prompts Collection) ([]byte, error) {
	if folders == nil {
		folders = []models.Folder{}
	}
	if prompts == nil {
		prompts = Collection{}
	}
	data, err := json.MarshalIndent(Bundle{Folders: folders, Prompts: prompts}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Import parses an export file. The top level must be an object whose
// folders and prompts fields are both arrays.
func Import(data []byte) (*Bundle, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Message: invalidFormat}
	}
	if !isArray(raw["folders"]) || !isArray(raw["prompts"]) {
		return nil, &ValidationError{Message: invalidFormat}
	}

	var b Bundle
	if err := json.Unmarshal(raw["folders"], &b.Folders); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("%s: folders: %v", invalidFormat, err)}
	}
	if err := json.Unmarshal(raw["prompts"], &b.Prompts); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("%s: prompts: %v", invalidFormat, err)}
	}
	if err := b.normalize(); err != nil {
		return nil, err
	}
	return &b, nil
}

// normalize rejects duplicate folder or prompt ids and moves prompts whose
// folder is not in the bundle to uncategorized.
func (b *Bundle) normalize() error {
	folders := make(map[string]bool, len(b.Folders))
	for _, f := range b.Folders {
		if folders[f.ID] {
			return &ValidationError{Message: fmt.Sprintf("Invalid file format: duplicate folder id %q", f.ID)}
		}
		folders[f.ID] = true
	}

	prompts := make(map[string]bool, len(b.Prompts))
	for i, v := range b.Prompts {
		if prompts[v.ID] {
			return &ValidationError{Message: fmt.Sprintf("Invalid file format: duplicate prompt id %q", v.ID)}
		}
		prompts[v.ID] = true
		if v.FolderID != nil && !folders[*v.FolderID] {
			b.Prompts[i].FolderID = nil
		}
	}
	return nil
}

func isArray(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && trimmed[0] == '['
}
