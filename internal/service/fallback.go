package service

import (
	"path/filepath"
	"strings"
)

// FailureClass tags why an analysis attempt failed. Classes are derived
// from typed errors at the point of failure, never from message text.
type FailureClass string

const (
	FailureNone             FailureClass = ""
	FailureTimedOut         FailureClass = "timed_out"
	FailureUnparseable      FailureClass = "binary_or_unparseable"
	FailureInsufficientText FailureClass = "insufficient_text"
	FailureOther            FailureClass = "other"
)

const previewLimit = 500

// FallbackSummary deterministically produces placeholder text for a
// failed analysis so no request ever ends with a blank result. Pure
// function: identical inputs always yield identical output. The branch
// order matters; first match wins.
func FallbackSummary(class FailureClass, fileName, extractedText string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	isWord := ext == ".doc" || ext == ".docx"

	switch {
	case class == FailureTimedOut:
		return "This document was too large to analyze within the processing time limit. " +
			"Try splitting it into smaller sections and uploading each part separately."
	case class == FailureUnparseable && ext == ".pdf":
		return "This PDF could not be read. It may be image-based (scanned) or encrypted. " +
			"Run it through an OCR tool to produce a text layer, then upload it again."
	case class == FailureUnparseable && isWord:
		return "This Word document could not be read. Convert it to plain text (or save it " +
			"as .txt) and upload the converted file."
	case class == FailureUnparseable:
		return "This file appears to be in a binary format that cannot be analyzed. " +
			"Upload the document as PDF, Word or plain text."
	case class == FailureInsufficientText:
		return "This document does not contain enough extractable text to analyze. " +
			"If it is a scan, run OCR first; otherwise check that the file is not empty."
	}

	preview := collapseWhitespace(extractedText)
	if preview != "" {
		if runes := []rune(preview); len(runes) > previewLimit {
			preview = string(runes[:previewLimit]) + "..."
		}
		return "AI processing failed for this document. Below is a raw excerpt of the " +
			"extracted text:\n\n" + preview
	}

	switch {
	case ext == ".pdf":
		return "Text could not be extracted from this PDF. It may be image-based or " +
			"protected; converting it with an OCR tool usually helps."
	case isWord:
		return "Text could not be extracted from this Word document. Saving it as plain " +
			"text and re-uploading usually helps."
	default:
		return "This document could not be analyzed. Try uploading it in a different " +
			"format (PDF, Word or plain text)."
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
