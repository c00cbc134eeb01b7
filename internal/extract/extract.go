package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extraction failures are typed here, at the source, so downstream
// failure classification never has to sniff error messages.
var (
	ErrUnparseable = errors.New("binary or unparseable document")
	ErrNoText      = errors.New("no extractable text")
)

// Text pulls plain text out of an uploaded document based on its
// extension. Returns ErrUnparseable for documents whose container or
// encoding cannot be read and ErrNoText when parsing succeeds but
// yields nothing usable.
func Text(fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoText
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	case ".doc":
		return legacyDocText(data)
	default:
		return plainText(data)
	}
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid utf-8 text", ErrUnparseable)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// legacyDocText is a best-effort scan of the OLE binary .doc format:
// collect runs of printable characters, the way strings(1) does. If the
// result is a tiny fraction of the input the file is treated as opaque.
func legacyDocText(data []byte) (string, error) {
	var sb strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= 16 {
			sb.Write(run)
			sb.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, b := range data {
		if b == '\t' || (b >= 0x20 && b < 0x7f) {
			run = append(run, b)
			continue
		}
		flush()
	}
	flush()
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoText
	}
	if len(text)*20 < len(data) {
		return "", fmt.Errorf("%w: legacy .doc container", ErrUnparseable)
	}
	return text, nil
}
