package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Identifier  string
	Publisher   string
	Description string
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string // resolved against the OPF directory
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// Author returns the first creator with the "aut" role, falling back to the
// first creator of any role.
func (m Metadata) Author() string {
	for _, c := range m.Creators {
		if c.Role == "aut" {
			return c.Name
		}
	}
	if len(m.Creators) > 0 {
		return m.Creators[0].Name
	}
	return ""
}

// StylesheetItems returns the manifest items declared as text/css, in
// manifest order.
func (opf *OPF) StylesheetItems() []ManifestItem {
	var items []ManifestItem
	for _, id := range opf.ManifestOrder {
		if item := opf.Manifest[id]; item.MediaType == "text/css" {
			items = append(items, item)
		}
	}
	return items
}
