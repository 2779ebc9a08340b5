// Package pdf extracts plain text from uploaded PDF documents for the
// document pipeline (CV and quiz generation). Extracted text is normalized
// before it is combined with an instruction template: repeated spaces and
// blank lines are collapsed and carriage returns stripped, so provider
// prompts stay compact and deterministic.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ErrNoText indicates the document contained no extractable text (e.g. a
// scanned image-only PDF).
var ErrNoText = errors.New("pdf: no extractable text")

// ExtractText reads a whole PDF stream and returns its normalized plain text.
func ExtractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("pdf: read: %w", err)
	}
	return ExtractTextBytes(data)
}

// ExtractTextBytes parses an in-memory PDF and returns its normalized text.
func ExtractTextBytes(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: parse: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: extract: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("pdf: extract: %w", err)
	}

	text := Normalize(buf.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
