package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

func TestExportShape(t *testing.T) {
	data, err := Export(nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"folders":[],"prompts":[]}`, string(data))

	data, err = Export([]models.Folder{{ID: "f", Name: "F"}}, Collection{{ID: "p", BaseID: "p", Version: 1}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  \"folders\""), "indented output")

	b, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, "F", b.Folders[0].Name)
	assert.Equal(t, "p", b.Prompts[0].ID)
}

func TestImportRejectsBadShapes(t *testing.T) {
	cases := []string{
		`{"folders": "not-an-array", "prompts": []}`,
		`{"folders": [], "prompts": {}}`,
		`{"folders": []}`,
		`{"prompts": []}`,
		`[]`,
		`not json`,
		`{"folders": null, "prompts": []}`,
	}
	for _, in := range cases {
		_, err := Import([]byte(in))
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, in)
		assert.Contains(t, vErr.Error(), "expected folders and prompts arrays")
	}
}

func TestImportRejectsMistypedElements(t *testing.T) {
	_, err := Import([]byte(`{"folders": [1], "prompts": []}`))
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestImportToleratesExtraFields(t *testing.T) {
	raw := map[string]any{"folders": []any{}, "prompts": []any{}, "exportedAt": "2026-01-01"}
	data, _ := json.Marshal(raw)
	b, err := Import(data)
	require.NoError(t, err)
	assert.Empty(t, b.Prompts)
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	cases := map[string]string{
		"prompt": `{"folders": [], "prompts": [{"id":"p","baseId":"p","version":1},{"id":"p","baseId":"p","version":2}]}`,
		"folder": `{"folders": [{"id":"f","name":"A"},{"id":"f","name":"B"}], "prompts": []}`,
	}
	for name, in := range cases {
		_, err := Import([]byte(in))
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, name)
		assert.Contains(t, vErr.Error(), "duplicate", name)
	}
}

func TestImportUncategorizesDanglingFolders(t *testing.T) {
	b, err := Import([]byte(`{
		"folders": [{"id":"f1","name":"Kept"}],
		"prompts": [
			{"id":"a","baseId":"a","version":1,"folderId":"f1"},
			{"id":"b","baseId":"b","version":1,"folderId":"gone"},
			{"id":"c","baseId":"c","version":1,"folderId":null}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, b.Prompts, 3)
	require.NotNil(t, b.Prompts[0].FolderID)
	assert.Equal(t, "f1", *b.Prompts[0].FolderID)
	assert.Nil(t, b.Prompts[1].FolderID)
	assert.Nil(t, b.Prompts[2].FolderID)
	assert.True(t, FolderExists(b.Folders, b.Prompts[1].FolderID))
}
