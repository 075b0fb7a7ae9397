// Package pdfinfo examines PDF files before they're converted.
package pdfinfo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "pdfinfo"})

const pdfMimeType = "application/pdf"

var (
	versionRegexp     = regexp.MustCompile(`^%PDF-(\d\.\d)`)
	partRegexp        = regexp.MustCompile(`pdfaid:part(?:>|=["'])\s*(\d)`)
	conformanceRegexp = regexp.MustCompile(`pdfaid:conformance(?:>|=["'])\s*([A-Za-z])`)
)

// Inspector examines PDF files on the local file system.
type Inspector struct{}

// New creates a new inspector.
func New() *Inspector {
	return &Inspector{}
}

// Inspect reports whether the file at path is a readable PDF document along with its version, page count and
// declared PDF/A conformance. An error is returned only if the file can't be read at all.
func (i *Inspector) Inspect(ctx context.Context, path string) (*model.PDFReport, error) {
	log := log.WithFields(logrus.Fields{"context": "inspect", "path": path})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	report := &model.PDFReport{Issues: []string{}, Recommendations: []string{}}

	// Check the content rather than trusting the file name.
	mtype := mimetype.Detect(content)
	report.MimeType = mtype.String()
	if !mtype.Is(pdfMimeType) {
		report.Issues = append(report.Issues, fmt.Sprintf("the file content is %s rather than a PDF document", mtype.String()))
		return report, nil
	}

	if m := versionRegexp.FindSubmatch(content); m != nil {
		report.Version = string(m[1])
	}

	pages, err := countPages(path)
	if err != nil {
		log.Debugf("unable to parse the document: %s", err)
		report.Issues = append(report.Issues, "the PDF document is damaged or can't be parsed")
		return report, nil
	}
	report.PageCount = pages
	report.Valid = true
	report.CanConvert = true

	if level := pdfaLevel(content); level != "" {
		report.IsPDFA = true
		report.PDFALevel = level
		report.Recommendations = append(report.Recommendations, "this file already declares PDF/A conformance")
	} else {
		report.Recommendations = append(report.Recommendations, "convert the file to PDF/A for long-term archiving")
	}

	return report, nil
}

// countPages parses the document and returns its page count. The parser panics on some malformed input, so panics
// are converted to errors.
func countPages(path string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("malformed PDF document: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pages = r.NumPage()
	if pages < 1 {
		return 0, errors.New("the document has no pages")
	}
	return pages, nil
}

// pdfaLevel extracts the PDF/A conformance level from the document's XMP metadata, for example PDF/A-2b.
func pdfaLevel(content []byte) string {
	if !bytes.Contains(content, []byte("pdfaid:part")) {
		return ""
	}
	part := partRegexp.FindSubmatch(content)
	if part == nil {
		return ""
	}
	level := "PDF/A-" + string(part[1])
	if c := conformanceRegexp.FindSubmatch(content); c != nil {
		level += strings.ToLower(string(c[1]))
	}
	return level
}
