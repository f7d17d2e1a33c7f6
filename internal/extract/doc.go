package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

const (
	fibMagicWord97   = 0xA5EC
	fibFlagsOffset   = 0x0A
	fibWhichTblStm   = 0x0200
	fibBaseSize      = 32
	fcClxPairIndex   = 33
	pieceCompressed  = 0x40000000
	clxPrcMarker     = 0x01
	clxPcdtMarker    = 0x02
	pieceDescriptor  = 8
	minTextRunLength = 4
)

var errNoPieceTable = errors.New("piece table not found")

// decodeLegacyWord opens a Word 97-2003 compound file and reads its text
// through the piece table. When the table is unusable the WordDocument stream
// is scanned for text runs instead.
func decodeLegacyWord(data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not a compound file: %w", err)
	}

	streams := make(map[string][]byte)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			buf, readErr := io.ReadAll(entry)
			if readErr != nil {
				return "", fmt.Errorf("read %s stream: %w", entry.Name, readErr)
			}
			streams[entry.Name] = buf
		}
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return "", errors.New("compound file has no WordDocument stream")
	}

	text, err := pieceTableText(wordDoc, streams["0Table"], streams["1Table"])
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	return scanTextRuns(wordDoc), nil
}

// pieceTableText reads the document text via FIB → CLX → PlcPcd.
func pieceTableText(wordDoc, table0, table1 []byte) (string, error) {
	if len(wordDoc) < fibBaseSize+2 {
		return "", errNoPieceTable
	}
	if binary.LittleEndian.Uint16(wordDoc) != fibMagicWord97 {
		return "", fmt.Errorf("unexpected FIB identifier %#x", binary.LittleEndian.Uint16(wordDoc))
	}

	table := table0
	if binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])&fibWhichTblStm != 0 {
		table = table1
	}
	if len(table) == 0 {
		return "", errNoPieceTable
	}

	fcClx, lcbClx, err := clxLocation(wordDoc)
	if err != nil {
		return "", err
	}
	if lcbClx == 0 || uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", errNoPieceTable
	}
	clx := table[fcClx : fcClx+lcbClx]

	plcPcd, err := findPlcPcd(clx)
	if err != nil {
		return "", err
	}
	return readPieces(wordDoc, plcPcd)
}

// clxLocation walks the variable-length FIB header to the fcClx/lcbClx pair.
func clxLocation(wordDoc []byte) (uint32, uint32, error) {
	pos := fibBaseSize
	u16 := func() (int, bool) {
		if pos+2 > len(wordDoc) {
			return 0, false
		}
		v := int(binary.LittleEndian.Uint16(wordDoc[pos:]))
		pos += 2
		return v, true
	}

	csw, ok := u16()
	if !ok {
		return 0, 0, errNoPieceTable
	}
	pos += csw * 2
	cslw, ok := u16()
	if !ok {
		return 0, 0, errNoPieceTable
	}
	pos += cslw * 4
	cbRgFcLcb, ok := u16()
	if !ok || cbRgFcLcb <= fcClxPairIndex {
		return 0, 0, errNoPieceTable
	}

	at := pos + fcClxPairIndex*8
	if at+8 > len(wordDoc) {
		return 0, 0, errNoPieceTable
	}
	return binary.LittleEndian.Uint32(wordDoc[at:]), binary.LittleEndian.Uint32(wordDoc[at+4:]), nil
}

// findPlcPcd skips Prc entries and returns the PlcPcd payload of the Pcdt.
func findPlcPcd(clx []byte) ([]byte, error) {
	i := 0
	for i < len(clx) {
		switch clx[i] {
		case clxPrcMarker:
			if i+3 > len(clx) {
				return nil, errNoPieceTable
			}
			cb := int(int16(binary.LittleEndian.Uint16(clx[i+1:])))
			if cb < 0 {
				return nil, errNoPieceTable
			}
			i += 3 + cb
		case clxPcdtMarker:
			if i+5 > len(clx) {
				return nil, errNoPieceTable
			}
			lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
			if i+5+lcb > len(clx) {
				return nil, errNoPieceTable
			}
			return clx[i+5 : i+5+lcb], nil
		default:
			return nil, fmt.Errorf("unexpected CLX marker %#x", clx[i])
		}
	}
	return nil, errNoPieceTable
}

// readPieces decodes each text piece. A PlcPcd holds n+1 character positions
// followed by n 8-byte piece descriptors.
func readPieces(wordDoc, plcPcd []byte) (string, error) {
	if len(plcPcd) < 4 || (len(plcPcd)-4)%(4+pieceDescriptor) != 0 {
		return "", errNoPieceTable
	}
	n := (len(plcPcd) - 4) / (4 + pieceDescriptor)
	cps := make([]uint32, n+1)
	for i := range cps {
		cps[i] = binary.LittleEndian.Uint32(plcPcd[i*4:])
	}

	cp1252 := charmap.Windows1252.NewDecoder()
	utf16 := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder()

	var sb strings.Builder
	pcdBase := (n + 1) * 4
	for i := 0; i < n; i++ {
		if cps[i+1] < cps[i] {
			return "", errNoPieceTable
		}
		chars := int(cps[i+1] - cps[i])
		pcd := plcPcd[pcdBase+i*pieceDescriptor:]
		fc := binary.LittleEndian.Uint32(pcd[2:])

		var raw []byte
		var err error
		if fc&pieceCompressed != 0 {
			offset := int((fc &^ pieceCompressed) / 2)
			if offset+chars > len(wordDoc) {
				return "", errNoPieceTable
			}
			raw, err = cp1252.Bytes(wordDoc[offset : offset+chars])
		} else {
			offset := int(fc)
			if offset+chars*2 > len(wordDoc) {
				return "", errNoPieceTable
			}
			raw, err = utf16.Bytes(wordDoc[offset : offset+chars*2])
		}
		if err != nil {
			return "", fmt.Errorf("decode piece %d: %w", i, err)
		}
		sb.Write(raw)
	}
	return cleanWordText(sb.String()), nil
}

// cleanWordText maps Word control characters to plain text and keeps only the
// displayed result of fields.
func cleanWordText(s string) string {
	var sb strings.Builder
	depth := 0
	inInstruction := false
	for _, r := range s {
		switch r {
		case 0x13: // field begin
			depth++
			inInstruction = true
			continue
		case 0x14: // field separator
			inInstruction = false
			continue
		case 0x15: // field end
			if depth > 0 {
				depth--
			}
			inInstruction = false
			continue
		}
		if inInstruction {
			continue
		}
		switch r {
		case '\r', 0x0B, 0x0C:
			sb.WriteByte('\n')
		case 0x07:
			sb.WriteByte('\t')
		case 0x1E:
			sb.WriteByte('-')
		case 0x1F:
		default:
			if unicode.IsPrint(r) || r == '\t' || r == '\n' {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// scanTextRuns recovers readable text from a WordDocument stream without the
// piece table: it collects UTF-16LE and 8-bit printable runs and keeps
// whichever encoding yields more text.
func scanTextRuns(stream []byte) string {
	var wide, narrow []string
	var run []rune

	flush := func(dst *[]string) {
		if len(run) >= minTextRunLength {
			*dst = append(*dst, string(run))
		}
		run = run[:0]
	}

	for i := 0; i+1 < len(stream); i += 2 {
		r := rune(binary.LittleEndian.Uint16(stream[i:]))
		if r == '\r' || (isWideTextRune(r) && unicode.IsPrint(r)) {
			run = append(run, r)
			continue
		}
		flush(&wide)
	}
	flush(&wide)

	for _, b := range stream {
		r := rune(b)
		if r == '\r' || (r >= 0x20 && r < 0x7F) {
			run = append(run, r)
			continue
		}
		flush(&narrow)
	}
	flush(&narrow)

	chosen := wide
	if totalLen(narrow) > totalLen(wide) {
		chosen = narrow
	}
	return strings.ReplaceAll(strings.Join(chosen, "\n"), "\r", "\n")
}

// isWideTextRune limits UTF-16 runs to alphabetic scripts and common
// punctuation, so pairs of 8-bit characters are not read as CJK text.
func isWideTextRune(r rune) bool {
	return r < 0x2000 || (r >= 0x2010 && r <= 0x2027)
}

func totalLen(parts []string) int {
	n := 0
	for _, p := range parts {
		n += utf8.RuneCountInString(p)
	}
	return n
}
