package prompt

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

var ErrNotFound = errors.New("prompt not found")

// Collection is every prompt version ever created, in creation order.
// Operations below never modify their input collection.
type Collection []models.PromptVersion

// Draft holds the editable fields of a prompt version.
type Draft struct {
	FolderID     *string  `json:"folderId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	SystemPrompt string   `json:"systemPrompt"`
	UserPrompt   string   `json:"userPrompt"`
	Tags         []string `json:"tags"`
}

func draftOf(v models.PromptVersion) Draft {
	return Draft{
		FolderID:     v.FolderID,
		Title:        v.Title,
		Description:  v.Description,
		SystemPrompt: v.SystemPrompt,
		UserPrompt:   v.UserPrompt,
		Tags:         v.Tags,
	}
}

func (d Draft) apply(v *models.PromptVersion) {
	v.FolderID = nil
	if d.FolderID != nil {
		id := *d.FolderID
		v.FolderID = &id
	}
	v.Title = d.Title
	v.Description = d.Description
	v.SystemPrompt = d.SystemPrompt
	v.UserPrompt = d.UserPrompt
	v.Tags = append([]string{}, d.Tags...)
}

// Store performs the lineage operations. NewID and Now are injectable so
// tests can pin identifiers and timestamps.
type Store struct {
	NewID func() string
	Now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

func (c Collection) clone() Collection {
	out := make(Collection, len(c))
	for i, v := range c {
		out[i] = v.Clone()
	}
	return out
}

func (c Collection) index(id string) int {
	for i, v := range c {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the version with the given id.
func (c Collection) Find(id string) (models.PromptVersion, bool) {
	if i := c.index(id); i >= 0 {
		return c[i].Clone(), true
	}
	return models.PromptVersion{}, false
}

// Create starts a new lineage at version 1.
func (s *Store) Create(c Collection, d Draft) (Collection, models.PromptVersion) {
	now := s.Now()
	id := s.NewID()
	v := models.PromptVersion{
		ID:        id,
		BaseID:    id,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.apply(&v)

	out := append(c.clone(), v)
	return out, v.Clone()
}

// Fork copies the source into a brand-new lineage. An unknown source is a
// no-op reported through ok.
func (s *Store) Fork(c Collection, sourceID string) (out Collection, v models.PromptVersion, ok bool) {
	src, found := c.Find(sourceID)
	if !found {
		return c, models.PromptVersion{}, false
	}

	now := s.Now()
	id := s.NewID()
	v = models.PromptVersion{
		ID:         id,
		BaseID:     id,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
		ForkedFrom: src.ID,
	}
	draftOf(src).apply(&v)

	return append(c.clone(), v), v.Clone(), true
}

// NewVersion appends max(version)+1 to the source's lineage.
func (s *Store) NewVersion(c Collection, sourceID string) (out Collection, v models.PromptVersion, ok bool) {
	src, found := c.Find(sourceID)
	if !found {
		return c, models.PromptVersion{}, false
	}

	next := 0
	for _, m := range c {
		if m.BaseID == src.BaseID && m.Version > next {
			next = m.Version
		}
	}

	now := s.Now()
	v = models.PromptVersion{
		ID:        s.NewID(),
		BaseID:    src.BaseID,
		Version:   next + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	draftOf(src).apply(&v)

	return append(c.clone(), v), v.Clone(), true
}

// Update replaces the editable fields of one version.
func (s *Store) Update(c Collection, id string, d Draft) (Collection, models.PromptVersion, bool) {
	i := c.index(id)
	if i < 0 {
		return c, models.PromptVersion{}, false
	}
	out := c.clone()
	d.apply(&out[i])
	out[i].UpdatedAt = s.Now()
	return out, out[i].Clone(), true
}

// AttachTestResult sets the single saved result of a version; nil clears it.
func (s *Store) AttachTestResult(c Collection, id string, tr *models.TestResult) (Collection, bool) {
	i := c.index(id)
	if i < 0 {
		return c, false
	}
	out := c.clone()
	if tr == nil {
		out[i].SavedTestResult = nil
	} else {
		saved := tr.Clone()
		out[i].SavedTestResult = &saved
	}
	out[i].UpdatedAt = s.Now()
	return out, true
}

// MoveLineage assigns every version of baseID to folderID (nil for uncategorized).
func (s *Store) MoveLineage(c Collection, baseID string, folderID *string) (Collection, bool) {
	out := c.clone()
	moved := false
	for i := range out {
		if out[i].BaseID != baseID {
			continue
		}
		out[i].FolderID = nil
		if folderID != nil {
			id := *folderID
			out[i].FolderID = &id
		}
		moved = true
	}
	if !moved {
		return c, false
	}
	return out, true
}

// DeleteVersion removes exactly one version. When it was selected, the
// selection moves to the newest surviving member of its lineage, else to the
// item now at the removed position, else to the item before it, else "".
func DeleteVersion(c Collection, id, selected string) (Collection, string) {
	i := c.index(id)
	if i < 0 {
		return c, selected
	}
	removed := c[i]

	out := make(Collection, 0, len(c)-1)
	for j, v := range c {
		if j != i {
			out = append(out, v.Clone())
		}
	}

	if selected != id {
		return out, selected
	}
	if latest, ok := latestOf(out, removed.BaseID); ok {
		return out, latest.ID
	}
	return out, adjacent(out, i)
}

// DeleteLineage removes every version sharing baseID. A selection inside the
// lineage moves to the adjacent survivor.
func DeleteLineage(c Collection, baseID, selected string) (Collection, string) {
	first := -1
	selectedInLineage := false
	out := make(Collection, 0, len(c))
	for j, v := range c {
		if v.BaseID == baseID {
			if first < 0 {
				first = j
			}
			if v.ID == selected {
				selectedInLineage = true
			}
			continue
		}
		out = append(out, v.Clone())
	}
	if !selectedInLineage {
		return out, selected
	}
	return out, adjacent(out, first)
}

func adjacent(c Collection, pos int) string {
	switch {
	case pos < len(c):
		return c[pos].ID
	case len(c) > 0:
		return c[len(c)-1].ID
	default:
		return ""
	}
}

func latestOf(c Collection, baseID string) (models.PromptVersion, bool) {
	var best models.PromptVersion
	found := false
	for _, v := range c {
		if v.BaseID == baseID && (!found || v.Version > best.Version) {
			best = v
			found = true
		}
	}
	return best, found
}

// LatestPerLineage returns one row per lineage, its highest version, in the
// order lineages first appear.
func LatestPerLineage(c Collection) Collection {
	var order []string
	latest := make(map[string]models.PromptVersion)
	for _, v := range c {
		cur, ok := latest[v.BaseID]
		if !ok {
			order = append(order, v.BaseID)
		}
		if !ok || v.Version > cur.Version {
			latest[v.BaseID] = v
		}
	}

	out := make(Collection, 0, len(order))
	for _, base := range order {
		out = append(out, latest[base].Clone())
	}
	return out
}

// VersionsOf returns the lineage newest first.
func VersionsOf(c Collection, baseID string) Collection {
	var out Collection
	for _, v := range c {
		if v.BaseID == baseID {
			out = append(out, v.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}
