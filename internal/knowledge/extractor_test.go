package knowledge

import (
	"testing"

	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		format   string
	}{
		{"report.pdf", FormatPDF},
		{"notes.txt", FormatTXT},
		{"REPORT.PDF", FormatPDF},
		{"archive.tar.txt", FormatTXT},
	}

	for _, tt := range tests {
		format, err := FormatFromFilename(tt.filename)
		assert.NoError(t, err)
		assert.Equal(t, tt.format, format)
	}
}

func TestFormatFromFilenameUnsupported(t *testing.T) {
	for _, filename := range []string{"image.png", "doc.docx", "noext"} {
		_, err := FormatFromFilename(filename)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnsupportedFormat), filename)
	}
}

func TestExtractTXT(t *testing.T) {
	extractor := NewExtractor()

	text, err := extractor.Extract([]byte("  hello world\n"), FormatTXT)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]byte{0xff, 0xfe, 0xfd}, FormatTXT)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDecodeError))
}

func TestExtractEmptyDocument(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]byte("   \n\t  "), FormatTXT)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptyDocument))
}

func TestExtractUnknownFormat(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]byte("data"), "docx")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestExtractPDFGarbage(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]byte("not a pdf at all"), FormatPDF)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDecodeError))
}
