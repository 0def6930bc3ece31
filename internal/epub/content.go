package epub

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/bionicbook/internal/markup"
)

// titleSelector matches the heading or title-like elements a chapter title
// is taken from, in document order.
const titleSelector = "h1, h2, h3, h4, [class*='title']"

// Content represents a loaded XHTML content document
type Content struct {
	ID     string // Manifest ID
	Path   string // File path within the archive
	Title  string // Detected title, empty when none was found
	Markup string // Body markup with images embedded
}

// LoadContent parses an XHTML content file, embeds the images it references
// and detects its title. path is used to resolve relative references.
func LoadContent(id, path string, data []byte, resources *ResourceLoader) (*Content, error) {
	root, err := markup.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}
	if resources != nil {
		resources.Embed(root, dirOf(path))
	}

	title, err := DetectTitle(data)
	if err != nil {
		return nil, err
	}

	return &Content{
		ID:     id,
		Path:   path,
		Title:  title,
		Markup: strings.TrimSpace(markup.RenderChildren(markup.Body(root))),
	}, nil
}

// DetectTitle returns the text of the first heading or title-like element,
// falling back to the document <title>. It returns "" when neither exists.
func DetectTitle(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse XHTML: %w", err)
	}

	var title string
	doc.Find("body").Find(titleSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		title = collapseSpace(s.Text())
		return title == ""
	})
	if title == "" {
		title = collapseSpace(doc.Find("head title").First().Text())
	}
	return title, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResourceLoader embeds archive images into markup as data URIs. It is safe
// for concurrent use across chapters; each image is encoded once.
type ResourceLoader struct {
	archive   *Archive
	optimizer *ImageOptimizer
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]string // archive path -> data URI, "" when unavailable
}

// NewResourceLoader creates a ResourceLoader reading from a.
func NewResourceLoader(a *Archive, optimizer *ImageOptimizer, logger *slog.Logger) *ResourceLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceLoader{
		archive:   a,
		optimizer: optimizer,
		logger:    logger,
		cache:     make(map[string]string),
	}
}

// Embed rewrites every <img src> and SVG <image href> under n that is not
// already a data URI. dir is the directory of the document n came from.
// References to files absent from the archive are left untouched.
func (r *ResourceLoader) Embed(n *markup.Node, dir string) {
	if n.Kind == markup.ElementNode {
		switch n.Tag {
		case "img":
			r.rewrite(n, dir, func(a markup.Attr) bool { return a.Namespace == "" && a.Key == "src" })
		case "image":
			r.rewrite(n, dir, func(a markup.Attr) bool { return a.Key == "href" })
		}
	}
	for _, c := range n.Children {
		r.Embed(c, dir)
	}
}

func (r *ResourceLoader) rewrite(n *markup.Node, dir string, match func(markup.Attr) bool) {
	for i, a := range n.Attrs {
		if !match(a) {
			continue
		}
		ref := strings.TrimSpace(a.Val)
		if ref == "" || hasScheme(ref) {
			continue
		}
		if uri, ok := r.dataURI(ResolvePath(dir, ref)); ok {
			n.Attrs[i].Val = uri
		}
	}
}

func (r *ResourceLoader) dataURI(path string) (string, bool) {
	r.mu.Lock()
	uri, seen := r.cache[path]
	r.mu.Unlock()
	if seen {
		return uri, uri != ""
	}

	data, err := r.archive.ReadFile(path)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			r.logger.Debug("image not found in archive, keeping reference", "path", path)
		} else {
			r.logger.Warn("failed to read image", "path", path, "error", err)
		}
	} else {
		mediaType := MediaTypeFor(path)
		optimized, optimizedType, err := r.optimizer.Optimize(mediaType, data)
		if err != nil {
			r.logger.Warn("image left unoptimized", "path", path, "error", err)
		}
		uri = DataURI(optimizedType, optimized)
	}

	r.mu.Lock()
	r.cache[path] = uri
	r.mu.Unlock()
	return uri, uri != ""
}

// hasScheme reports whether ref is a data URI or an absolute URL.
func hasScheme(ref string) bool {
	lower := strings.ToLower(ref)
	for _, scheme := range []string{"data:", "http:", "https:", "file:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
