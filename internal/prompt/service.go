package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

const (
	promptsKey = "prompts"
	foldersKey = "folders"
)

// Service persists the collections through a kv.Store. Each mutation loads
// the current snapshot, applies a pure Store operation and writes the whole
// result back.
type Service struct {
	kv    kv.Store
	store *Store
	mu    sync.Mutex
}

func NewService(store kv.Store, ops *Store) *Service {
	if ops == nil {
		ops = NewStore()
	}
	return &Service{kv: store, store: ops}
}

func (s *Service) load(ctx context.Context) (Collection, []models.Folder, error) {
	prompts := Collection{}
	if err := kv.GetOrDefault(ctx, s.kv, promptsKey, &prompts); err != nil {
		return nil, nil, fmt.Errorf("load prompts: %w", err)
	}
	folders := []models.Folder{}
	if err := kv.GetOrDefault(ctx, s.kv, foldersKey, &folders); err != nil {
		return nil, nil, fmt.Errorf("load folders: %w", err)
	}
	return prompts, folders, nil
}

func (s *Service) save(ctx context.Context, prompts Collection, folders []models.Folder) error {
	if err := s.kv.Set(ctx, promptsKey, prompts); err != nil {
		return fmt.Errorf("save prompts: %w", err)
	}
	if err := s.kv.Set(ctx, foldersKey, folders); err != nil {
		return fmt.Errorf("save folders: %w", err)
	}
	return nil
}

type mutation func(Collection, []models.Folder) (Collection, []models.Folder, error)

func (s *Service) mutate(ctx context.Context, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts, folders, err := s.load(ctx)
	if err != nil {
		return err
	}
	prompts, folders, err = fn(prompts, folders)
	if err != nil {
		return err
	}
	return s.save(ctx, prompts, folders)
}

// Snapshot returns both collections as stored.
func (s *Service) Snapshot(ctx context.Context) (*Bundle, error) {
	prompts, folders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Bundle{Folders: folders, Prompts: prompts}, nil
}

// List returns the latest version of every lineage.
func (s *Service) List(ctx context.Context) (Collection, error) {
	prompts, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return LatestPerLineage(prompts), nil
}

func (s *Service) Get(ctx context.Context, id string) (models.PromptVersion, error) {
	prompts, _, err := s.load(ctx)
	if err != nil {
		return models.PromptVersion{}, err
	}
	v, ok := prompts.Find(id)
	if !ok {
		return models.PromptVersion{}, ErrNotFound
	}
	return v, nil
}

func (s *Service) Versions(ctx context.Context, baseID string) (Collection, error) {
	prompts, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	versions := VersionsOf(prompts, baseID)
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions, nil
}

func (s *Service) Create(ctx context.Context, d Draft) (models.PromptVersion, error) {
	var created models.PromptVersion
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		if !FolderExists(fs, d.FolderID) {
			return nil, nil, ErrFolderNotFound
		}
		c, created = s.store.Create(c, d)
		return c, fs, nil
	})
	if err != nil {
		return models.PromptVersion{}, err
	}
	slog.Info("prompt created", "id", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, d Draft) (models.PromptVersion, error) {
	var updated models.PromptVersion
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		if !FolderExists(fs, d.FolderID) {
			return nil, nil, ErrFolderNotFound
		}
		out, v, ok := s.store.Update(c, id, d)
		if !ok {
			return nil, nil, ErrNotFound
		}
		updated = v
		return out, fs, nil
	})
	return updated, err
}

func (s *Service) Fork(ctx context.Context, sourceID string) (models.PromptVersion, error) {
	var forked models.PromptVersion
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		out, v, ok := s.store.Fork(c, sourceID)
		if !ok {
			return nil, nil, ErrNotFound
		}
		forked = v
		return out, fs, nil
	})
	if err != nil {
		return models.PromptVersion{}, err
	}
	slog.Info("prompt forked", "source", sourceID, "id", forked.ID)
	return forked, nil
}

func (s *Service) NewVersion(ctx context.Context, sourceID string) (models.PromptVersion, error) {
	var created models.PromptVersion
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		out, v, ok := s.store.NewVersion(c, sourceID)
		if !ok {
			return nil, nil, ErrNotFound
		}
		created = v
		return out, fs, nil
	})
	if err != nil {
		return models.PromptVersion{}, err
	}
	slog.Info("prompt version created", "base", created.BaseID, "version", created.Version)
	return created, nil
}

// DeleteVersion removes one version and returns the new selection.
func (s *Service) DeleteVersion(ctx context.Context, id, selected string) (string, error) {
	next := selected
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		if _, ok := c.Find(id); !ok {
			return nil, nil, ErrNotFound
		}
		var out Collection
		out, next = DeleteVersion(c, id, selected)
		return out, fs, nil
	})
	return next, err
}

// DeleteLineage removes every version of baseID and returns the new selection.
func (s *Service) DeleteLineage(ctx context.Context, baseID, selected string) (string, error) {
	next := selected
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		if len(VersionsOf(c, baseID)) == 0 {
			return nil, nil, ErrNotFound
		}
		var out Collection
		out, next = DeleteLineage(c, baseID, selected)
		return out, fs, nil
	})
	return next, err
}

// SaveTestResult attaches tr to the version; nil removes the saved result.
func (s *Service) SaveTestResult(ctx context.Context, id string, tr *models.TestResult) error {
	return s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		out, ok := s.store.AttachTestResult(c, id, tr)
		if !ok {
			return nil, nil, ErrNotFound
		}
		return out, fs, nil
	})
}

func (s *Service) MoveLineage(ctx context.Context, baseID string, folderID *string) error {
	return s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		if !FolderExists(fs, folderID) {
			return nil, nil, ErrFolderNotFound
		}
		out, ok := s.store.MoveLineage(c, baseID, folderID)
		if !ok {
			return nil, nil, ErrNotFound
		}
		return out, fs, nil
	})
}

func (s *Service) Folders(ctx context.Context) ([]models.Folder, error) {
	_, folders, err := s.load(ctx)
	return folders, err
}

func (s *Service) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	var created models.Folder
	err := s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		out, f, err := s.store.CreateFolder(fs, name)
		created = f
		return c, out, err
	})
	return created, err
}

func (s *Service) RenameFolder(ctx context.Context, id, name string) error {
	return s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		out, err := s.store.RenameFolder(fs, id, name)
		return c, out, err
	})
}

func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c Collection, fs []models.Folder) (Collection, []models.Folder, error) {
		folders, prompts, err := s.store.DeleteFolder(fs, c, id)
		return prompts, folders, err
	})
}

func (s *Service) Export(ctx context.Context) ([]byte, error) {
	b, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Export(b.Folders, b.Prompts)
}

// Import replaces both collections. A malformed file leaves state untouched.
func (s *Service) Import(ctx context.Context, data []byte) (*Bundle, error) {
	b, err := Import(data)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, func(Collection, []models.Folder) (Collection, []models.Folder, error) {
		return b.Prompts, b.Folders, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("workspace imported", "folders", len(b.Folders), "prompts", len(b.Prompts))
	return b, nil
}
