package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yuanying/bionicbook/internal/book"
)

const epubMimetype = "application/epub+zip"

// Archive provides read access to the files of an EPUB held in memory.
type Archive struct {
	files   map[string]*zip.File
	opfPath string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	ErrInvalidMimetype   = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeNotFound  = errors.New("mimetype file not found")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
	ErrFileNotFound      = errors.New("file not found in archive")
)

// OpenArchive opens an EPUB from its raw bytes and locates the package
// document. A missing or wrong mimetype entry is only logged; a missing
// container.xml or root-file reference is a *book.FormatError.
func OpenArchive(data []byte, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, book.NewFormatError(formatName, "failed to open archive: %v", err)
	}

	a := &Archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[normalizePath(f.Name)] = f
	}

	if err := a.validateMimetype(); err != nil {
		logger.Warn("archive mimetype check failed", "error", err)
	}

	if err := a.parseContainer(); err != nil {
		return nil, book.NewFormatError(formatName, "%v", err)
	}

	return a, nil
}

// OPFPath returns the path to the package document.
func (a *Archive) OPFPath() string {
	return a.opfPath
}

// Has reports whether the archive contains path.
func (a *Archive) Has(path string) bool {
	_, ok := a.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of a file from the archive. The returned error
// wraps ErrFileNotFound when path is absent.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// validateMimetype checks that the mimetype file exists and is valid
func (a *Archive) validateMimetype() error {
	if !a.Has("mimetype") {
		return ErrMimetypeNotFound
	}

	content, err := a.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}

	if strings.TrimSpace(string(content)) != epubMimetype {
		return ErrInvalidMimetype
	}

	return nil
}

// parseContainer parses container.xml to extract the OPF path
func (a *Archive) parseContainer() error {
	content, err := a.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.FullPath == "" {
			continue
		}
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			a.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}

	// If no media-type match, use the first one with a path
	for _, rf := range c.Rootfiles.Rootfile {
		if rf.FullPath != "" {
			a.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}

	return ErrOPFPathNotFound
}

// normalizePath normalizes archive paths (removes ./ and leading / prefixes)
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	return strings.TrimPrefix(path, "/")
}
