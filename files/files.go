// Package files manages the documents attached to a chat session.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
)

// Backend uploads and lists session documents.
type Backend interface {
	UploadFile(ctx context.Context, sessionID, name string, r io.Reader) (model.UploadedFile, error)
	Files(ctx context.Context, sessionID string) ([]model.UploadedFile, error)
}

// Panel is the file list of the open session with per-file selection.
type Panel struct {
	files  []model.UploadedFile
	cursor int
}

func (p *Panel) Files() []model.UploadedFile {
	out := make([]model.UploadedFile, len(p.files))
	copy(out, p.files)
	return out
}

func (p *Panel) Len() int { return len(p.files) }
func (p *Panel) Cursor() int { return p.cursor }

// Replace swaps in a fresh list. Files that were selected before stay
// selected.
func (p *Panel) Replace(files []model.UploadedFile) {
	selected := make(map[string]bool, len(p.files))
	for _, f := range p.files {
		if f.Selected {
			selected[f.ID] = true
		}
	}

	p.files = make([]model.UploadedFile, len(files))
	for i, f := range files {
		f.Selected = selected[f.ID]
		p.files[i] = f
	}
	if p.cursor >= len(p.files) {
		p.cursor = max(0, len(p.files)-1)
	}
}

// Clear drops all files, e.g. when another session is opened.
func (p *Panel) Clear() {
	p.files = nil
	p.cursor = 0
}

// Toggle flips the selection of the file with the given id.
func (p *Panel) Toggle(id string) bool {
	for i := range p.files {
		if p.files[i].ID == id {
			p.files[i].Selected = !p.files[i].Selected
			return true
		}
	}
	return false
}

// ToggleCursor flips the selection of the file under the cursor.
func (p *Panel) ToggleCursor() {
	if p.cursor < len(p.files) {
		p.files[p.cursor].Selected = !p.files[p.cursor].Selected
	}
}

func (p *Panel) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *Panel) MoveDown() {
	if p.cursor < len(p.files)-1 {
		p.cursor++
	}
}

// SelectedIDs returns the ids sent along with the next chat message.
func (p *Panel) SelectedIDs() []string {
	var ids []string
	for _, f := range p.files {
		if f.Selected {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// UploadAll uploads paths one at a time, in order, then re-lists the
// session's files. A failed upload does not stop the batch; all failures
// are returned joined.
func UploadAll(ctx context.Context, b Backend, sessionID string, paths []string) ([]model.UploadedFile, error) {
	log := logging.Get(logging.CategoryAPI)

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := uploadOne(ctx, b, sessionID, path); err != nil {
			log.Warn("upload failed", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		log.Info("uploaded file", zap.String("path", path), zap.String("session", sessionID))
	}

	files, err := b.Files(ctx, sessionID)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to refresh files: %w", err))
	}
	return files, errors.Join(errs...)
}

func uploadOne(ctx context.Context, b Backend, sessionID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	_, err = b.UploadFile(ctx, sessionID, filepath.Base(path), f)
	return err
}
