package knowledge

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// 支持的文档格式标签
const (
	FormatPDF = "pdf"
	FormatTXT = "txt"
)

// FormatFromFilename 根据文件后缀判断格式标签
func FormatFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".txt":
		return FormatTXT, nil
	default:
		return "", apperrors.NewClientError(apperrors.ErrCodeUnsupportedFormat,
			"unsupported file type, upload PDF or TXT").WithDetails(filename)
	}
}

// Extractor 文档文本提取器
type Extractor struct{}

// NewExtractor 创建文本提取器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 将上传的字节解码为纯文本
// 提取成功但结果为空（或全空白）视为空文档错误，调用方必须拒绝该上传
func (e *Extractor) Extract(data []byte, format string) (string, error) {
	var text string
	var err error

	switch format {
	case FormatPDF:
		text, err = e.extractPDF(data)
	case FormatTXT:
		text, err = e.extractTXT(data)
	default:
		return "", apperrors.NewClientError(apperrors.ErrCodeUnsupportedFormat,
			"unsupported file type, upload PDF or TXT").WithDetails(format)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewClientError(apperrors.ErrCodeEmptyDocument,
			"no text extracted from document")
	}
	return text, nil
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", apperrors.NewClientError(apperrors.ErrCodeDecodeError,
			"failed to parse PDF").WithCause(err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", apperrors.NewClientError(apperrors.ErrCodeDecodeError,
			"failed to read PDF page count").WithCause(err)
	}

	// 逐页提取，单页失败按空页处理
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

func (e *Extractor) extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", apperrors.NewClientError(apperrors.ErrCodeDecodeError,
			"text file is not valid UTF-8")
	}
	return string(data), nil
}
