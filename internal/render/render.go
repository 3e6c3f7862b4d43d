// Package render turns a resume document and its style configuration into a
// self-contained A4 HTML page using one of a fixed set of template variants.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"sync"

	"resumeStudio/internal/resume"
)

// Page geometry shared by every template and by the capture step (A4 at 96 DPI).
const (
	PageWidthPx  = 794
	PageHeightPx = 1123
)

// CaptureRootID 是截图/打印目标容器的 id。
const CaptureRootID = "resume-root"

// ReadyMarkerID 在字体加载完毕后插入页面，作为渲染完成信号。
const ReadyMarkerID = "render-complete"

//go:embed templates/*.gohtml
var templatesFS embed.FS

// Document 是渲染结果：使用的模板、实际输出的板块以及完整 HTML。
type Document struct {
	TemplateID resume.TemplateID
	Sections   []string
	HTML       []byte
}

// HasSection reports whether the rendered output includes the given section key.
func (d *Document) HasSection(key string) bool {
	for _, s := range d.Sections {
		if s == key {
			return true
		}
	}
	return false
}

// Variant 描述一个可注册的模板。
type Variant struct {
	ID     resume.TemplateID
	Name   string
	Layout string
	// Photo marks variants that render a photo slot when showPhoto is on.
	Photo bool
	// File is the variant template under templates/.
	File string

	tmpl *template.Template
}

// Info is the public description of a registered variant.
type Info struct {
	ID     resume.TemplateID `json:"id"`
	Name   string            `json:"name"`
	Layout string            `json:"layout"`
	Photo  bool              `json:"photo"`
}

// Registry maps template ids to parsed variants.
type Registry struct {
	mu       sync.RWMutex
	variants map[resume.TemplateID]*Variant
	fallback resume.TemplateID
}

// NewRegistry creates an empty registry falling back to the given id.
func NewRegistry(fallback resume.TemplateID) *Registry {
	return &Registry{
		variants: make(map[resume.TemplateID]*Variant),
		fallback: fallback,
	}
}

// Register parses the variant template together with the shared layout and partials.
func (r *Registry) Register(v Variant) error {
	if v.ID == "" {
		return fmt.Errorf("register template: empty id")
	}
	tmpl, err := template.New(v.File).ParseFS(templatesFS,
		"templates/base.gohtml",
		"templates/partials.gohtml",
		"templates/"+v.File,
	)
	if err != nil {
		return fmt.Errorf("parse template %q: %w", v.ID, err)
	}
	if tmpl.Lookup("body") == nil {
		return fmt.Errorf("template %q does not define a body", v.ID)
	}
	v.tmpl = tmpl

	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = &v
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(v Variant) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}

// Resolve 将请求的模板 id 映射到实际使用的模板：未知 id 回落到默认模板；
// modern-minimal 的带照片版本由 showPhoto 决定，而不是单独的 id。
func (r *Registry) Resolve(id resume.TemplateID, showPhoto bool) resume.TemplateID {
	id = photoVariant(id, showPhoto)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.variants[id]; ok {
		return id
	}
	return photoVariant(r.fallback, showPhoto)
}

func photoVariant(id resume.TemplateID, showPhoto bool) resume.TemplateID {
	if id != resume.TemplateModernMinimal && id != resume.TemplateModernMinimalPhoto {
		return id
	}
	if showPhoto {
		return resume.TemplateModernMinimalPhoto
	}
	return resume.TemplateModernMinimal
}

// Render 是纯函数：同样的输入总是得到同样的输出，不访问网络也不修改入参。
func (r *Registry) Render(id resume.TemplateID, doc resume.Document, style resume.StyleConfig) (*Document, error) {
	resolved := r.Resolve(id, style.ShowPhoto)

	r.mu.RLock()
	variant, ok := r.variants[resolved]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q is not registered", resolved)
	}

	v := buildView(resolved, doc, style)

	var buf bytes.Buffer
	if err := variant.tmpl.ExecuteTemplate(&buf, "document", v); err != nil {
		return nil, fmt.Errorf("execute template %q: %w", resolved, err)
	}

	return &Document{
		TemplateID: resolved,
		Sections:   v.sections(),
		HTML:       buf.Bytes(),
	}, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id resume.TemplateID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.variants[id]
	return ok
}

// Templates lists registered variants ordered by id.
func (r *Registry) Templates() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.variants))
	for _, v := range r.variants {
		infos = append(infos, Info{ID: v.ID, Name: v.Name, Layout: v.Layout, Photo: v.Photo})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Builtin returns the five variants shipped with the application.
func Builtin() []Variant {
	return []Variant{
		{ID: resume.TemplateModernMinimal, Name: "Modern Minimal", Layout: "single-column", File: "modern_minimal.gohtml"},
		{ID: resume.TemplateModernMinimalPhoto, Name: "Modern Minimal (Photo)", Layout: "single-column", Photo: true, File: "modern_minimal_photo.gohtml"},
		{ID: resume.TemplateCreativePhoto, Name: "Creative Photo", Layout: "sidebar", Photo: true, File: "creative_photo.gohtml"},
		{ID: resume.TemplateExecutivePro, Name: "Executive Pro", Layout: "header-grid", Photo: true, File: "executive_pro.gohtml"},
		{ID: resume.TemplateTechFocused, Name: "Tech Focused", Layout: "sidebar", Photo: true, File: "tech_focused.gohtml"},
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry holding the builtin variants.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(resume.DefaultTemplate)
		for _, v := range Builtin() {
			defaultRegistry.MustRegister(v)
		}
	})
	return defaultRegistry
}

// Render renders with the default registry.
func Render(id resume.TemplateID, doc resume.Document, style resume.StyleConfig) (*Document, error) {
	return Default().Render(id, doc, style)
}

// Resolve resolves with the default registry.
func Resolve(id resume.TemplateID, showPhoto bool) resume.TemplateID {
	return Default().Resolve(id, showPhoto)
}
