package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"
)

const defaultMediaType = "application/octet-stream"

// ListResources lists <root>/<username>/<path>. A directory yields its direct
// children, a file yields itself. Paths escaping the user's root do not exist.
func (b *LocalBackend) ListResources(
	ctx context.Context,
	username, resourcePath string,
) ([]models.Resource, error) {
	if _, err := b.FindUser(ctx, username); err != nil {
		return nil, err
	}
	if b.resourcesRoot == "" {
		return nil, fmt.Errorf("%w: no resource root configured", core.ErrResourceNotFound)
	}

	userRoot, target, err := b.resolveResourcePath(username, resourcePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, resourcePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}

	rel, _ := filepath.Rel(userRoot, target)
	href := "/" + filepath.ToSlash(rel)
	if rel == "." {
		href = "/"
	}

	if !info.IsDir() {
		return []models.Resource{fileResource(href, info)}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	resources := make([]models.Resource, 0, len(entries))
	for _, e := range entries {
		child, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		resources = append(resources, fileResource(path.Join(href, e.Name()), child))
	}
	return resources, nil
}

// resolveResourcePath returns the user's root and the requested location,
// both with symlinks resolved, or ErrResourceNotFound when the location is
// outside the root.
func (b *LocalBackend) resolveResourcePath(username, resourcePath string) (string, string, error) {
	notFound := fmt.Errorf("%w: %s", core.ErrResourceNotFound, resourcePath)

	base, err := filepath.Abs(b.resourcesRoot)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	userRoot := filepath.Join(base, username)
	if !within(base, userRoot) || userRoot == base {
		return "", "", notFound
	}
	target := filepath.Join(userRoot, filepath.FromSlash(strings.TrimSpace(resourcePath)))
	if !within(userRoot, target) {
		return "", "", notFound
	}

	realRoot, err := filepath.EvalSymlinks(userRoot)
	if err != nil {
		return "", "", notFound
	}
	realTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", "", notFound
	}
	if !within(realRoot, realTarget) {
		return "", "", notFound
	}
	return realRoot, realTarget, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileResource(href string, info fs.FileInfo) models.Resource {
	res := models.Resource{
		Href:         href,
		Name:         info.Name(),
		LastModified: info.ModTime().UTC(),
		ETag:         fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
	}
	if info.IsDir() {
		res.MediaType = models.MediaTypeDirectory
		if !strings.HasSuffix(res.Href, "/") {
			res.Href += "/"
		}
		return res
	}
	res.MediaType = mime.TypeByExtension(filepath.Ext(info.Name()))
	if res.MediaType == "" {
		res.MediaType = defaultMediaType
	}
	return res
}
