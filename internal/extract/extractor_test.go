package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestExtractPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("Battery must be above 20% charge."), ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Battery must be above 20% charge." {
		t.Errorf("plain text = %q", text)
	}
}

func TestExtractPlainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte{'o', 'k', 0xff, 0xfe}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "ok") {
		t.Errorf("expected salvaged prefix, got %q", text)
	}
}

func TestExtractUnknownExtensionFallsBackToPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("checklist"), ".sop")
	if err != nil {
		t.Fatal(err)
	}
	if text != "checklist" {
		t.Errorf("text = %q", text)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?><w:document><w:body>` +
		`<w:p w:rsidR="0"><w:r><w:t>Check propellers</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">for cracks.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	e := NewExtractor()
	text, err := e.ExtractBytes(buildDOCX(t, docXML), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Check propellers for cracks." {
		t.Errorf("docx text = %q", text)
	}
}

func TestExtractDOCXNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestExtractPDFInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	want := map[string]bool{".txt": true, ".md": true, ".pdf": true, ".docx": true, ".xlsx": true}
	if len(exts) != len(want) {
		t.Fatalf("got %d extensions", len(exts))
	}
	for _, e := range exts {
		if !want[e] {
			t.Errorf("unexpected extension %q", e)
		}
	}
}
