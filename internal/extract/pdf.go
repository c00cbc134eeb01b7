package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

func pdfText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnparseable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	text = strings.TrimSpace(sb.String())
	if text == "" {
		// Image-only or encrypted PDFs parse fine but carry no text layer.
		return "", ErrNoText
	}
	return text, nil
}
