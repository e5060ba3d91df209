package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrInvalidFormat means the file extension is not accepted at all.
	ErrInvalidFormat = errors.New("invalid file format, only PDF and DOC/DOCX are allowed")
	// ErrUnsupportedFormat means the extension is accepted but text
	// extraction is not implemented for it yet.
	ErrUnsupportedFormat = errors.New("only PDF files are currently supported")
)

var allowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
}

// ValidateExtension returns the lowercase extension of filename, or
// ErrInvalidFormat when it is not an accepted resume format.
func ValidateExtension(filename string) (string, error) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", ErrInvalidFormat
	}
	ext := strings.ToLower(filename[idx+1:])
	if !allowedExtensions[ext] {
		return "", ErrInvalidFormat
	}
	return ext, nil
}

// Text extracts plain text from the uploaded file contents. Only PDF is
// supported; doc/docx pass validation but fail here, matching the upload
// contract.
func Text(contents []byte, ext string) (string, error) {
	if ext != "pdf" {
		return "", ErrUnsupportedFormat
	}
	return pdfText(contents)
}

func pdfText(contents []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(contents), int64(len(contents)))
	if err != nil {
		return "", fmt.Errorf("error extracting text from PDF: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("error extracting text from PDF page %d: %w", i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
