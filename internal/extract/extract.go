package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrEmptyDocument is reported when there are no bytes to parse.
var ErrEmptyDocument = errors.New("empty document")

// Result is the outcome of a PDF text extraction.
// Err is set only for document-level failures; Text is then empty.
type Result struct {
	Text        string
	Pages       int
	FailedPages []int
	Err         error
}

// PDFText extracts plain text page by page using github.com/ledongthuc/pdf.
// Page text is joined with newlines. A page that cannot be parsed contributes
// an empty string and is listed in FailedPages. PDFText never panics.
func PDFText(ctx context.Context, data []byte) (res Result) {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	if len(data) == 0 {
		return Result{Err: ErrEmptyDocument}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{Err: fmt.Errorf("pdf: %w", err)}
	}

	res.Pages = reader.NumPage()
	pages := make([]string, 0, res.Pages)
	for i := 1; i <= res.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Pages: res.Pages, Err: err}
		}
		text, err := pageText(reader, i)
		if err != nil {
			res.FailedPages = append(res.FailedPages, i)
			text = ""
		}
		pages = append(pages, text)
	}
	res.Text = strings.Join(pages, "\n")
	return res
}

func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", num)
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	return page.GetPlainText(fonts)
}

// ExtractTextFromBytes extracts text from an in-memory payload of the given type.
// PDF goes through PDFText; DOCX is read from word/document.xml.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case MimePDF:
		res := PDFText(ctx, data)
		if res.Err != nil {
			return "", res.Err
		}
		return res.Text, nil
	case MimeDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("unsupported mime type: %s", normalized)
	}
}

// MimeFromName maps a file extension to a mime type understood by ExtractTextFromBytes.
func MimeFromName(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	default:
		return "application/octet-stream"
	}
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent()), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		if bytes.HasPrefix(data, []byte("%PDF-")) {
			return MimePDF
		}
		clean = MimeFromName(fileName)
	}
	if clean != "application/zip" {
		return clean
	}
	if isDOCXZip(data) || strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return MimeDOCX
	}
	return clean
}

func isDOCXZip(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
