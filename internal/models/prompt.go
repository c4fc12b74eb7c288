package models

import "time"

// PromptVersion is one immutable revision of a prompt. Versions sharing a
// BaseID form a lineage.
type PromptVersion struct {
	ID              string      `json:"id"`
	BaseID          string      `json:"baseId"`
	FolderID        *string     `json:"folderId"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	SystemPrompt    string      `json:"systemPrompt"`
	UserPrompt      string      `json:"userPrompt"`
	Tags            []string    `json:"tags"`
	Version         int         `json:"version"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	ForkedFrom      string      `json:"forkedFrom,omitempty"`
	SavedTestResult *TestResult `json:"savedTestResult,omitempty"`
}

// Clone returns a deep copy that shares no slices or pointers with p.
func (p PromptVersion) Clone() PromptVersion {
	out := p
	if p.FolderID != nil {
		id := *p.FolderID
		out.FolderID = &id
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.SavedTestResult != nil {
		tr := p.SavedTestResult.Clone()
		out.SavedTestResult = &tr
	}
	return out
}

// Folder is a flat named container for prompts.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
