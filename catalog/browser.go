package catalog

import (
	"context"

	"github.com/giantswarm/microerror"

	"github.com/microscaling/regskin/registry"
	"github.com/microscaling/regskin/utils"
)

// Registry is the part of the registry client the Browser needs.
type Registry interface {
	FetchTags(ctx context.Context, known registry.Repositories, path string) (registry.TagList, error)
	FetchManifest(ctx context.Context, path string, tag string) (registry.ImageMetadata, error)
}

// Directory is one level of the repository tree. Tags is only non-empty when
// the path is itself a repository.
type Directory struct {
	Path string   `json:"-"`
	Dirs []string `json:"dirs"`
	Tags []string `json:"tags"`
}

// Browser answers directory and image lookups from the cached catalog and
// the live registry.
type Browser struct {
	cache    *Cache
	registry Registry
}

func NewBrowser(cache *Cache, r Registry) *Browser {
	return &Browser{
		cache:    cache,
		registry: r,
	}
}

// CurrentSnapshot returns the installed catalog snapshot.
func (b *Browser) CurrentSnapshot() *Snapshot {
	return b.cache.Current()
}

// LookupDirectory lists the children of path and, if path is a repository,
// its tags.
func (b *Browser) LookupDirectory(ctx context.Context, path string) (Directory, error) {
	s := b.cache.Current()
	full, _ := utils.DirPath(path)

	node := s.Lookup(full)
	if node == nil {
		return Directory{}, microerror.Maskf(notFoundError, "no directory %#q", path)
	}

	tags, err := b.registry.FetchTags(ctx, s, full)
	if err != nil {
		return Directory{}, microerror.Mask(err)
	}

	d := Directory{
		Path: full,
		Dirs: node.ChildNames(),
		Tags: tags.Tags,
	}

	return d, nil
}

// LookupImage gets the metadata for one tagged image.
func (b *Browser) LookupImage(ctx context.Context, path string, tag string) (registry.ImageMetadata, error) {
	image, err := b.registry.FetchManifest(ctx, path, tag)
	if registry.IsNotFound(err) {
		return image, microerror.Maskf(notFoundError, "no image %s:%s", path, tag)
	} else if err != nil {
		return image, microerror.Mask(err)
	}

	return image, nil
}
