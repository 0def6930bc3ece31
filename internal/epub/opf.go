package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// opfPackage represents the OPF XML structure. Manifest and spine are
// pointers so a missing section can be told apart from an empty one.
type opfPackage struct {
	XMLName  xml.Name     `xml:"package"`
	Version  string       `xml:"version,attr"`
	UniqueID string       `xml:"unique-identifier,attr"`
	Manifest *opfManifest `xml:"manifest"`
	Spine    *opfSpine    `xml:"spine"`
}

// opfManifest represents the manifest section
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// opfSpine represents the spine section
type opfSpine struct {
	ItemRefs []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine
type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// Metadata lookups match on local-name() so that dc:title, title and
// opf:meta are all found regardless of prefix or default namespace.
var (
	metadataExpr    = xpath.MustCompile(`//*[local-name()='metadata']`)
	titleExpr       = xpath.MustCompile(`*[local-name()='title']`)
	creatorExpr     = xpath.MustCompile(`*[local-name()='creator']`)
	languageExpr    = xpath.MustCompile(`*[local-name()='language']`)
	identifierExpr  = xpath.MustCompile(`*[local-name()='identifier']`)
	publisherExpr   = xpath.MustCompile(`*[local-name()='publisher']`)
	descriptionExpr = xpath.MustCompile(`*[local-name()='description']`)
	roleMetaExpr    = xpath.MustCompile(`*[local-name()='meta'][@property='role']`)
)

// ParseOPF parses an OPF file content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OEBPS/"); every
// manifest href is resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}
	if pkg.Manifest == nil {
		return nil, fmt.Errorf("OPF has no manifest")
	}
	if pkg.Spine == nil {
		return nil, fmt.Errorf("OPF has no spine")
	}

	metadata, err := parseMetadata(content, pkg.UniqueID)
	if err != nil {
		return nil, err
	}

	opf := &OPF{
		Metadata: metadata,
		Manifest: make(map[string]ManifestItem, len(pkg.Manifest.Items)),
	}

	for _, item := range pkg.Manifest.Items {
		if item.ID == "" {
			continue
		}
		manifestItem := ManifestItem{
			ID:        item.ID,
			Href:      ResolvePath(opfDir, item.Href),
			MediaType: strings.ToLower(strings.TrimSpace(item.MediaType)),
		}
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}
		if _, dup := opf.Manifest[item.ID]; !dup {
			opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
		}
		opf.Manifest[item.ID] = manifestItem
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		})
	}

	return opf, nil
}

// parseMetadata reads the metadata section with tolerant, namespace-agnostic
// lookups. Missing fields are left empty.
func parseMetadata(content []byte, uniqueID string) (Metadata, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse OPF metadata: %w", err)
	}

	var md Metadata
	meta := xmlquery.QuerySelector(doc, metadataExpr)
	if meta == nil {
		return md, nil
	}

	md.Title = firstText(meta, titleExpr)
	md.Language = firstText(meta, languageExpr)
	md.Publisher = firstText(meta, publisherExpr)
	md.Description = firstText(meta, descriptionExpr)

	// Identifier: prefer the one marked as unique-identifier
	for _, n := range xmlquery.QuerySelectorAll(meta, identifierExpr) {
		value := strings.TrimSpace(n.InnerText())
		if value == "" {
			continue
		}
		if md.Identifier == "" || (uniqueID != "" && attr(n, "id") == uniqueID) {
			md.Identifier = value
		}
	}

	creatorIndex := make(map[string]int)
	for _, n := range xmlquery.QuerySelectorAll(meta, creatorExpr) {
		name := strings.TrimSpace(n.InnerText())
		if name == "" {
			continue
		}
		if id := attr(n, "id"); id != "" {
			creatorIndex["#"+id] = len(md.Creators)
		}
		md.Creators = append(md.Creators, Creator{Name: name, Role: attr(n, "role")})
	}

	// EPUB 3.0 refines creator roles with <meta property="role" refines="#id">
	for _, n := range xmlquery.QuerySelectorAll(meta, roleMetaExpr) {
		idx, ok := creatorIndex[attr(n, "refines")]
		if !ok {
			continue
		}
		if role := strings.TrimSpace(n.InnerText()); role != "" {
			md.Creators[idx].Role = role
		}
	}

	return md, nil
}

func firstText(top *xmlquery.Node, expr *xpath.Expr) string {
	for _, n := range xmlquery.QuerySelectorAll(top, expr) {
		if text := strings.TrimSpace(n.InnerText()); text != "" {
			return text
		}
	}
	return ""
}

// attr returns the value of the attribute with the given local name,
// whatever its prefix.
func attr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// ResolvePath resolves href against the directory dir using a segment
// stack: ".." pops one segment, "." and empty segments are ignored, and
// anything else is pushed. A fragment or query suffix is dropped and
// percent-escapes are decoded.
func ResolvePath(dir, href string) string {
	href, _ = splitFragment(href)
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}

	var stack []string
	push := func(p string) {
		for _, seg := range strings.Split(p, "/") {
			switch seg {
			case "", ".":
			case "..":
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			default:
				stack = append(stack, seg)
			}
		}
	}
	if !strings.HasPrefix(href, "/") {
		push(dir)
	}
	push(href)

	return strings.Join(stack, "/")
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	path, fragment, _ = strings.Cut(src, "#")
	return path, fragment
}

// dirOf returns the directory part of an archive path, with a trailing
// slash, or "" for top-level files.
func dirOf(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i+1]
	}
	return ""
}
