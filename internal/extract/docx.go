package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxText unpacks the OOXML container and walks word/document.xml,
// collecting character data and paragraph breaks.
func docxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	var document *zip.File
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document = file
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", ErrUnparseable)
	}
	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		switch t := token.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
