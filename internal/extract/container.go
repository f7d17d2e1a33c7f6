package extract

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonathan/resume-importer/internal/types"
)

// Container is the physical document format, independent of what the client declared.
type Container string

const (
	ContainerPDF        Container = "pdf"
	ContainerDOCX       Container = "docx"
	ContainerLegacyWord Container = "doc"
	ContainerUnknown    Container = "unknown"
)

// NormalizeMimeType lower-cases a MIME type and strips parameters such as charset.
func NormalizeMimeType(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// DetectContainer identifies the document container from its magic bytes. The
// declared MIME type is consulted only when the bytes are not recognized.
// File extensions are never used.
func DetectContainer(data []byte, declared string) Container {
	if c := sniffContainer(data); c != ContainerUnknown {
		return c
	}
	switch NormalizeMimeType(declared) {
	case types.MimePDF:
		return ContainerPDF
	case types.MimeDOCX:
		return ContainerDOCX
	case types.MimeLegacyWord:
		return ContainerLegacyWord
	}
	return ContainerUnknown
}

func sniffContainer(data []byte) Container {
	if len(data) == 0 {
		return ContainerUnknown
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is(types.MimePDF):
			return ContainerPDF
		case m.Is(types.MimeDOCX):
			return ContainerDOCX
		case m.Is(types.MimeLegacyWord), m.Is("application/x-ole-storage"):
			return ContainerLegacyWord
		case m.Is("application/zip"):
			// Word files written by some tools put word/ entries after the
			// first few KiB, past what the sniffer inspects
			if zipHasEntry(data, "word/document.xml") {
				return ContainerDOCX
			}
			return ContainerUnknown
		}
	}
	return ContainerUnknown
}

func zipHasEntry(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
