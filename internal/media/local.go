package media

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes uploads under Dir and serves them from BaseURL.
type Local struct {
	Dir     string
	BaseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Upload names the file <uuid><ext> with ext taken from contentType.
func (l *Local) Upload(ctx context.Context, contentType string, r io.Reader, folder string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	dir := filepath.Join(l.Dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Asset{}, err
	}
	id := uuid.NewString()
	name := id + Ext(contentType)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return Asset{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return Asset{}, err
	}
	if err := f.Close(); err != nil {
		return Asset{}, err
	}
	return Asset{URL: l.BaseURL + "/" + path.Join(folder, name), PublicID: path.Join(folder, id)}, nil
}
