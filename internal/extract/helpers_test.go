package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/jonathan/resume-importer/internal/types"
	"github.com/stretchr/testify/require"
)

// buildDOCX assembles a minimal Word document with one paragraph per line.
func buildDOCX(t *testing.T, lines ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, line := range lines {
		var escaped bytes.Buffer
		require.NoError(t, xml.EscapeText(&escaped, []byte(line)))
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + escaped.String() + `</w:t></w:r></w:p>`)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`},
		{"word/document.xml", document},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// stubDecoder returns fixed text for every container.
type stubDecoder struct {
	text string
	err  error
}

func (s stubDecoder) DecodeText(Container, []byte) (string, error) {
	return s.text, s.err
}

// stubRefiner records calls and returns a fixed result.
type stubRefiner struct {
	record *types.ResumeRecord
	err    error
	calls  int
}

func (s *stubRefiner) Refine(_ context.Context, _ string, _ *types.ResumeRecord) (*types.ResumeRecord, error) {
	s.calls++
	return s.record, s.err
}

// stubProvider returns a fixed provider record or error.
type stubProvider struct {
	record *ProviderRecord
	err    error
}

func (s stubProvider) ResolveProfile(ctx context.Context, _ string) (*ProviderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.record, s.err
}

var pdfMagic = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
