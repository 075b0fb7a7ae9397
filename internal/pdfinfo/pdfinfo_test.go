package pdfinfo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildPDF assembles a small single-page PDF document with a valid cross-reference table. The comment is written
// right after the header.
func buildPDF(comment string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	if comment != "" {
		buf.WriteString("%" + comment + "\n")
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.pdf")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("unable to write the test file: %v", err)
	}
	return path
}

func TestInspectValidPDF(t *testing.T) {
	report, err := New().Inspect(context.Background(), writeFile(t, buildPDF("")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Valid || !report.CanConvert || report.PageCount != 1 || report.Version != "1.4" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.IsPDFA || report.MimeType != "application/pdf" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestInspectDetectsPDFA(t *testing.T) {
	comment := "<pdfaid:part>2</pdfaid:part><pdfaid:conformance>B</pdfaid:conformance>"
	report, err := New().Inspect(context.Background(), writeFile(t, buildPDF(comment)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.IsPDFA || report.PDFALevel != "PDF/A-2b" {
		t.Fatalf("expected PDF/A-2b to be detected: %+v", report)
	}
}

func TestInspectRejectsNonPDF(t *testing.T) {
	report, err := New().Inspect(context.Background(), writeFile(t, []byte("just some text, not a document\n")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Valid || report.CanConvert || len(report.Issues) == 0 {
		t.Fatalf("expected the file to be rejected: %+v", report)
	}
}

func TestInspectRejectsDamagedPDF(t *testing.T) {
	report, err := New().Inspect(context.Background(), writeFile(t, []byte("%PDF-1.7\nthis is not really a pdf\n")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Valid || report.Version != "1.7" {
		t.Fatalf("expected a damaged document to be reported: %+v", report)
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := New().Inspect(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestPDFALevel(t *testing.T) {
	tests := []struct{ input, want string }{
		{`<pdfaid:part>1</pdfaid:part>`, "PDF/A-1"},
		{`pdfaid:part="3" pdfaid:conformance="A"`, "PDF/A-3a"},
		{`<pdfaid:part>2</pdfaid:part><pdfaid:conformance>U</`, "PDF/A-2u"},
		{`no metadata here`, ""},
	}
	for _, tt := range tests {
		if got := pdfaLevel([]byte(tt.input)); got != tt.want {
			t.Errorf("pdfaLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
