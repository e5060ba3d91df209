package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  error
	}{
		{"resume.pdf", "pdf", nil},
		{"Resume.PDF", "pdf", nil},
		{"cv.doc", "doc", nil},
		{"cv.docx", "docx", nil},
		{"archive.tar.pdf", "pdf", nil},
		{"resume.txt", "", ErrInvalidFormat},
		{"resume.png", "", ErrInvalidFormat},
		{"resume", "", ErrInvalidFormat},
		{"resume.", "", ErrInvalidFormat},
		{"", "", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := ValidateExtension(tt.filename)
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTextRejectsNonPDF(t *testing.T) {
	_, err := Text([]byte("irrelevant"), "doc")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text([]byte("irrelevant"), "docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTextRejectsGarbageBytes(t *testing.T) {
	_, err := Text([]byte("this is not a pdf document"), "pdf")
	assert.Error(t, err)
}

func TestTextRejectsEmptyBytes(t *testing.T) {
	_, err := Text(nil, "pdf")
	assert.Error(t, err)
}
