// Package render converts PDF files to PDF/A by running Ghostscript.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "render"})

// maxStderr limits the amount of Ghostscript output included in error messages.
const maxStderr = 512

// waitDelay bounds how long to wait for output after the process has been killed.
const waitDelay = 5 * time.Second

// Ghostscript renders PDF/A files with the gs command.
type Ghostscript struct {
	Path            string
	PDFAVersion     string
	ColorConversion string
}

// NewGhostscript creates a renderer that runs the Ghostscript binary at path.
func NewGhostscript(path, pdfaVersion, colorConversion string) *Ghostscript {
	return &Ghostscript{Path: path, PDFAVersion: pdfaVersion, ColorConversion: colorConversion}
}

// Args returns the command-line arguments used to convert inputPath to outputPath.
func (g *Ghostscript) Args(inputPath, outputPath string) []string {
	return []string{
		fmt.Sprintf("-dPDFA=%s", g.PDFAVersion),
		"-dBATCH",
		"-dNOPAUSE",
		"-dSAFER",
		fmt.Sprintf("-sColorConversionStrategy=%s", g.ColorConversion),
		"-sDEVICE=pdfwrite",
		"-dPDFACompatibilityPolicy=1",
		fmt.Sprintf("-sOutputFile=%s", outputPath),
		inputPath,
	}
}

// Render converts inputPath to PDF/A, writing the result to outputPath. The Ghostscript process is killed when the
// context is cancelled or its deadline passes.
func (g *Ghostscript) Render(ctx context.Context, inputPath, outputPath string) error {
	log := log.WithFields(logrus.Fields{"context": "render", "input": inputPath})

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.Path, g.Args(inputPath, outputPath)...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log.Debugf("running %s %s", g.Path, strings.Join(cmd.Args[1:], " "))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		output := strings.TrimSpace(stderr.String())
		if len(output) > maxStderr {
			output = output[:maxStderr]
		}
		return errors.Wrapf(model.ErrRendererFailure, "%s: %s", err, output)
	}

	return nil
}
