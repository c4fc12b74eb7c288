package prompt

import (
	"errors"
	"strings"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderName     = errors.New("folder name required")
)

func cloneFolders(fs []models.Folder) []models.Folder {
	return append([]models.Folder{}, fs...)
}

func folderIndex(fs []models.Folder, id string) int {
	for i, f := range fs {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// FolderExists reports whether id names a live folder. A nil id is the
// uncategorized bucket and always exists.
func FolderExists(fs []models.Folder, id *string) bool {
	return id == nil || folderIndex(fs, *id) >= 0
}

func (s *Store) CreateFolder(fs []models.Folder, name string) ([]models.Folder, models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fs, models.Folder{}, ErrFolderName
	}
	f := models.Folder{ID: s.NewID(), Name: name, CreatedAt: s.Now()}
	return append(cloneFolders(fs), f), f, nil
}

func (s *Store) RenameFolder(fs []models.Folder, id, name string) ([]models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fs, ErrFolderName
	}
	i := folderIndex(fs, id)
	if i < 0 {
		return fs, ErrFolderNotFound
	}
	out := cloneFolders(fs)
	out[i].Name = name
	return out, nil
}

// DeleteFolder removes the folder and moves its prompts to uncategorized.
func (s *Store) DeleteFolder(fs []models.Folder, c Collection, id string) ([]models.Folder, Collection, error) {
	i := folderIndex(fs, id)
	if i < 0 {
		return fs, c, ErrFolderNotFound
	}
	outFolders := append(cloneFolders(fs[:i]), fs[i+1:]...)

	outPrompts := c.clone()
	for j := range outPrompts {
		if outPrompts[j].FolderID != nil && *outPrompts[j].FolderID == id {
			outPrompts[j].FolderID = nil
		}
	}
	return outFolders, outPrompts, nil
}
