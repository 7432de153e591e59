package education

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml templates/*.tmpl
var registryFS embed.FS

// ContentTypeInfo describes a generatable content type.
type ContentTypeInfo struct {
	Key         ContentType `json:"key"`
	Credits     int         `json:"credits"`
	Icon        string      `json:"icon"`
	Description string      `json:"description"`
	Template    string      `json:"-"`
}

// CatalogEntry is a selectable subject or grade level.
type CatalogEntry struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

type registryFile struct {
	ContentTypes []struct {
		Key         string `yaml:"key"`
		Credits     int    `yaml:"credits"`
		Icon        string `yaml:"icon"`
		Description string `yaml:"description"`
		Template    string `yaml:"template"`
	} `yaml:"content_types"`
	GradeLevels []CatalogEntry `yaml:"grade_levels"`
	Subjects    []CatalogEntry `yaml:"subjects"`
}

type registry struct {
	types       map[ContentType]ContentTypeInfo
	gradeLevels []CatalogEntry
	subjects    []CatalogEntry
}

// reg is built once at init and never written afterwards.
var reg = mustLoadRegistry()

func mustLoadRegistry() *registry {
	r, err := loadRegistry(registryFS)
	if err != nil {
		panic(fmt.Sprintf("education: %v", err))
	}
	return r
}

func loadRegistry(fsys fs.FS) (*registry, error) {
	data, err := fs.ReadFile(fsys, "registry.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}

	r := &registry{
		types:       make(map[ContentType]ContentTypeInfo, len(file.ContentTypes)),
		gradeLevels: file.GradeLevels,
		subjects:    file.Subjects,
	}
	for _, ct := range file.ContentTypes {
		key := ContentType(ct.Key)
		if !key.Valid() {
			return nil, fmt.Errorf("registry: %w: %q", ErrUnknownContentType, ct.Key)
		}
		if ct.Credits <= 0 {
			return nil, fmt.Errorf("registry: %s credits must be positive, got %d", key, ct.Credits)
		}
		tmpl, err := fs.ReadFile(fsys, path.Join("templates", ct.Template))
		if err != nil {
			return nil, fmt.Errorf("registry: template for %s: %w", key, err)
		}
		r.types[key] = ContentTypeInfo{
			Key:         key,
			Credits:     ct.Credits,
			Icon:        ct.Icon,
			Description: ct.Description,
			Template:    string(tmpl),
		}
	}
	for _, t := range AllContentTypes {
		if _, ok := r.types[t]; !ok {
			return nil, fmt.Errorf("registry: missing content type %s", t)
		}
	}
	return r, nil
}

// Lookup returns the registry entry for a content type.
func Lookup(t ContentType) (ContentTypeInfo, bool) {
	info, ok := reg.types[t]
	return info, ok
}

// ContentTypes returns all registry entries in display order.
func ContentTypes() []ContentTypeInfo {
	out := make([]ContentTypeInfo, 0, len(AllContentTypes))
	for _, t := range AllContentTypes {
		out = append(out, reg.types[t])
	}
	return out
}

// Subjects returns the subject catalogue.
func Subjects() []CatalogEntry {
	return append([]CatalogEntry(nil), reg.subjects...)
}

// GradeLevels returns the grade level catalogue.
func GradeLevels() []CatalogEntry {
	return append([]CatalogEntry(nil), reg.gradeLevels...)
}

// IsSubject reports whether key is a known subject.
func IsSubject(key string) bool {
	return hasKey(reg.subjects, key)
}

// IsGradeLevel reports whether key is a known grade level.
func IsGradeLevel(key string) bool {
	return hasKey(reg.gradeLevels, key)
}

func hasKey(entries []CatalogEntry, key string) bool {
	for _, e := range entries {
		if e.Key == key {
			return true
		}
	}
	return false
}
