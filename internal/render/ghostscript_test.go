package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/pkg/errors"
)

func TestArgs(t *testing.T) {
	g := NewGhostscript("gs", "2", "RGB")
	args := g.Args("in.pdf", "out.pdf")
	want := []string{
		"-dPDFA=2",
		"-dBATCH",
		"-dNOPAUSE",
		"-dSAFER",
		"-sColorConversionStrategy=RGB",
		"-sDEVICE=pdfwrite",
		"-dPDFACompatibilityPolicy=1",
		"-sOutputFile=out.pdf",
		"in.pdf",
	}
	if len(args) != len(want) {
		t.Fatalf("unexpected arguments: %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("argument %d: got %s, want %s", i, args[i], want[i])
		}
	}
}

// script writes an executable shell script that stands in for Ghostscript.
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "gs")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700); err != nil {
		t.Fatalf("unable to write the script: %v", err)
	}
	return path
}

func TestRenderFailure(t *testing.T) {
	g := NewGhostscript(script(t, "echo 'Unrecoverable error' >&2\nexit 1\n"), "1", "RGB")
	err := g.Render(context.Background(), "in.pdf", "out.pdf")
	if !errors.Is(err, model.ErrRendererFailure) {
		t.Fatalf("expected a renderer failure, got %v", err)
	}
}

func TestRenderTimeout(t *testing.T) {
	g := NewGhostscript(script(t, "exec sleep 5\n"), "1", "RGB")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.Render(ctx, "in.pdf", "out.pdf")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline exceeded error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("the process was not killed when the deadline passed")
	}
}

func TestRenderSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	g := NewGhostscript(script(t, "for a in \"$@\"; do case $a in -sOutputFile=*) echo '%PDF-1.4' > \"${a#-sOutputFile=}\";; esac; done\n"), "1", "RGB")
	if err := g.Render(context.Background(), "in.pdf", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected the output file to be written: %v", err)
	}
}
