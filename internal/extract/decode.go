package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextDecoder turns a document container into plain text.
type TextDecoder interface {
	DecodeText(container Container, data []byte) (string, error)
}

// ErrUnsupportedContainer is returned for containers no decoder understands.
var ErrUnsupportedContainer = errors.New("unsupported document container")

// DocumentDecoder is the default TextDecoder covering PDF, DOCX and legacy Word.
type DocumentDecoder struct{}

// DecodeText dispatches on the container.
func (DocumentDecoder) DecodeText(container Container, data []byte) (string, error) {
	switch container {
	case ContainerPDF:
		return decodePDF(data)
	case ContainerDOCX:
		return decodeDOCX(data)
	case ContainerLegacyWord:
		return decodeLegacyWord(data)
	default:
		return "", ErrUnsupportedContainer
	}
}

// decodePDF reads page text row by row so line structure survives. The reader
// panics on some malformed inputs; those become errors.
func decodePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			sb.WriteString(joinRow(row.Content))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	if strings.TrimSpace(sb.String()) != "" {
		return sb.String(), nil
	}

	// Some producers emit text the row grouper cannot place
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// joinRow concatenates text runs, inserting a space where runs are visibly apart.
func joinRow(runs pdf.TextHorizontal) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range runs {
		if i > 0 && t.X-prevEnd > t.FontSize*0.2 && !strings.HasPrefix(t.S, " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = math.Max(prevEnd, t.X+t.W)
	}
	return sb.String()
}

// decodeDOCX walks word/document.xml, emitting paragraphs as lines.
func decodeDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("no word/document.xml found in docx")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			case "tc":
				sb.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
