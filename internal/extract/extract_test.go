package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"contract-backend/internal/extract/pdftest"
)

func TestPDFText_JoinsPages(t *testing.T) {
	data := pdftest.Build("Master Services Agreement", "Net 30 payment terms")

	res := PDFText(context.Background(), data)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", res.Pages)
	}
	if len(res.FailedPages) != 0 {
		t.Fatalf("expected no failed pages, got %v", res.FailedPages)
	}
	if !strings.Contains(res.Text, "Master Services Agreement") || !strings.Contains(res.Text, "Net 30 payment terms") {
		t.Fatalf("missing page text: %q", res.Text)
	}
	if strings.Index(res.Text, "Master") > strings.Index(res.Text, "Net 30") {
		t.Fatalf("pages out of order: %q", res.Text)
	}
}

func TestPDFText_InvalidDocumentYieldsEmptyText(t *testing.T) {
	res := PDFText(context.Background(), []byte("this is not a pdf at all"))
	if res.Err == nil {
		t.Fatal("expected document-level error")
	}
	if res.Text != "" {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestPDFText_TruncatedDocumentDoesNotPanic(t *testing.T) {
	data := pdftest.Build("Some contract text that is long enough")
	res := PDFText(context.Background(), data[:len(data)/2])
	if res.Err == nil && res.Text != "" && len(res.FailedPages) == 0 {
		t.Fatalf("expected a failure for truncated pdf, got %+v", res)
	}
}

func TestPDFText_BadPageKeepsOtherPages(t *testing.T) {
	data := pdftest.Build("PAGE ONE alpha", "PAGE TWO bravo", "PAGE THREE charlie")
	// Same length keeps the xref offsets valid; two operands make Tj unreadable.
	good, bad := []byte("(PAGE TWO bravo) Tj"), []byte("(PAGETWO) (brav) Tj")
	if len(good) != len(bad) || !bytes.Contains(data, good) {
		t.Fatalf("fixture does not contain page two operator")
	}
	data = bytes.Replace(data, good, bad, 1)

	res := PDFText(context.Background(), data)
	if res.Err != nil {
		t.Fatalf("unexpected document error: %v", res.Err)
	}
	if res.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", res.Pages)
	}
	if len(res.FailedPages) != 1 || res.FailedPages[0] != 2 {
		t.Fatalf("expected failed pages [2], got %v", res.FailedPages)
	}
	if !strings.Contains(res.Text, "PAGE ONE alpha") || !strings.Contains(res.Text, "PAGE THREE charlie") {
		t.Fatalf("surviving pages missing: %q", res.Text)
	}
	if strings.Contains(res.Text, "brav") {
		t.Fatalf("bad page leaked text: %q", res.Text)
	}
	if strings.Index(res.Text, "PAGE ONE") > strings.Index(res.Text, "PAGE THREE") {
		t.Fatalf("pages out of order: %q", res.Text)
	}
}

func TestPDFText_Empty(t *testing.T) {
	res := PDFText(context.Background(), nil)
	if res.Err != ErrEmptyDocument {
		t.Fatalf("expected ErrEmptyDocument, got %v", res.Err)
	}
}

func TestPDFText_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := PDFText(ctx, pdftest.Build("text"))
	if res.Err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
}

func TestExtractTextFromBytes_SniffsPDF(t *testing.T) {
	text, err := ExtractTextFromBytes(context.Background(), pdftest.Build("Invoice total $42.00"), "", "upload.bin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Invoice total $42.00") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Customer: Acme</w:t></w:r></w:p><w:p><w:r><w:t>Net 45</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	rels, err := zw.Create("word/_rels/document.xml.rels")
	if err != nil {
		t.Fatalf("create rels entry: %v", err)
	}
	if _, err := rels.Write([]byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`)); err != nil {
		t.Fatalf("write rels entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	text, err := ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "contract.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if text != "Customer: Acme\nNet 45" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMimeFromName(t *testing.T) {
	if got := MimeFromName("Contract.PDF"); got != MimePDF {
		t.Fatalf("expected pdf mime, got %s", got)
	}
	if got := MimeFromName("a.txt"); got != "application/octet-stream" {
		t.Fatalf("unexpected mime %s", got)
	}
}
