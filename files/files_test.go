package files

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namanNagelia/canvasAgents/model"
)

type recordingBackend struct {
	calls   []string
	failOn  string
	listed  []model.UploadedFile
	listErr error
}

func (r *recordingBackend) UploadFile(_ context.Context, sessionID, name string, body io.Reader) (model.UploadedFile, error) {
	data, _ := io.ReadAll(body)
	r.calls = append(r.calls, "upload:"+sessionID+":"+name+":"+string(data))
	if name == r.failOn {
		return model.UploadedFile{}, errors.New("too large")
	}
	return model.UploadedFile{ID: name}, nil
}

func (r *recordingBackend) Files(_ context.Context, sessionID string) ([]model.UploadedFile, error) {
	r.calls = append(r.calls, "list:"+sessionID)
	return r.listed, r.listErr
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte(n+"-body"), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestUploadAllSequentialThenRefresh(t *testing.T) {
	b := &recordingBackend{listed: []model.UploadedFile{{ID: "a.txt"}, {ID: "b.txt"}}}
	paths := writeFiles(t, "a.txt", "b.txt", "c.txt")

	files, err := UploadAll(context.Background(), b, "s1", paths)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"upload:s1:a.txt:a.txt-body",
		"upload:s1:b.txt:b.txt-body",
		"upload:s1:c.txt:c.txt-body",
		"list:s1",
	}, b.calls)
	assert.Len(t, files, 2)
}

func TestUploadAllContinuesPastFailures(t *testing.T) {
	b := &recordingBackend{failOn: "b.txt"}
	paths := writeFiles(t, "a.txt", "b.txt", "c.txt")
	paths = append(paths, filepath.Join(t.TempDir(), "missing.txt"))

	_, err := UploadAll(context.Background(), b, "s1", paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
	assert.Contains(t, err.Error(), "missing.txt")
	assert.Len(t, b.calls, 4)
	assert.Equal(t, "list:s1", b.calls[3])
}

func TestUploadAllStopsWhenCancelled(t *testing.T) {
	b := &recordingBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := UploadAll(ctx, b, "s1", writeFiles(t, "a.txt"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"list:s1"}, b.calls)
}

func TestPanelSelection(t *testing.T) {
	var p Panel
	p.Replace([]model.UploadedFile{{ID: "1"}, {ID: "2"}, {ID: "3"}})

	assert.Nil(t, p.SelectedIDs())
	assert.True(t, p.Toggle("3"))
	assert.True(t, p.Toggle("1"))
	assert.False(t, p.Toggle("nope"))
	assert.Equal(t, []string{"1", "3"}, p.SelectedIDs())

	p.Toggle("1")
	assert.Equal(t, []string{"3"}, p.SelectedIDs())

	// a refresh keeps selections for files that still exist
	p.Replace([]model.UploadedFile{{ID: "3"}, {ID: "4"}})
	assert.Equal(t, []string{"3"}, p.SelectedIDs())
}

func TestPanelCursor(t *testing.T) {
	var p Panel
	p.Replace([]model.UploadedFile{{ID: "1"}, {ID: "2"}})

	p.MoveUp()
	assert.Equal(t, 0, p.Cursor())
	p.MoveDown()
	p.MoveDown()
	assert.Equal(t, 1, p.Cursor())

	p.ToggleCursor()
	assert.Equal(t, []string{"2"}, p.SelectedIDs())

	p.Replace([]model.UploadedFile{{ID: "1"}})
	assert.Equal(t, 0, p.Cursor())

	p.Clear()
	assert.Zero(t, p.Len())
	p.ToggleCursor()
}
