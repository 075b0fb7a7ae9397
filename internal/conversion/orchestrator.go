// Package conversion accepts batches of uploaded PDF files, enforces the daily quota and converts each file to PDF/A.
package conversion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyverse/pdfa/internal/jobs"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "conversion"})

// PDFContentType is the media type used for stored files.
const PDFContentType = "application/pdf"

// Renderer converts a PDF file to PDF/A.
type Renderer interface {
	Render(ctx context.Context, inputPath, outputPath string) error
}

// Store holds the uploaded and converted files.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Inspector examines a PDF file on disk.
type Inspector interface {
	Inspect(ctx context.Context, path string) (*model.PDFReport, error)
}

// Ledger is the part of the quota ledger used by the orchestrator.
type Ledger interface {
	Remaining(ctx context.Context, identity string, day time.Time) (int, error)
	GetOrInit(ctx context.Context, identity string, day time.Time) (*model.QuotaRecord, error)
	Info(ctx context.Context, identity string) (*model.Usage, error)
	PurgeBefore(ctx context.Context, day time.Time) (int64, error)
	Today() time.Time
	Now() time.Time
}

// Upload is a single file submitted for conversion.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileError describes a file that couldn't be converted.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BatchResult is the outcome of converting a batch of files.
type BatchResult struct {
	Jobs    []model.ConversionJob `json:"conversions"`
	Errors  []FileError           `json:"errors"`
	Success bool                  `json:"success"`
	Usage   *model.Usage          `json:"daily_usage,omitempty"`
}

// Check reports whether an identity can convert a number of files right now.
type Check struct {
	CanConvert bool        `json:"can_convert"`
	Requested  int         `json:"requested_files"`
	Usage      model.Usage `json:"daily_usage"`
}

// Download is a converted file ready to be sent to a client.
type Download struct {
	Name string
	Size int64
	Body io.ReadCloser
}

// Settings contains the tunable limits of the orchestrator.
type Settings struct {
	MaxFiles      int
	MaxFileSizeKB int
	MaxPages      int
	Concurrency   int
	RenderTimeout time.Duration
	WorkDir       string
}

// Orchestrator converts batches of files on behalf of clients.
type Orchestrator struct {
	ledger    Ledger
	tracker   *jobs.Tracker
	renderer  Renderer
	store     Store
	inspector Inspector
	settings  Settings
}

// NewOrchestrator creates a new conversion orchestrator.
func NewOrchestrator(
	ledger Ledger,
	tracker *jobs.Tracker,
	renderer Renderer,
	store Store,
	inspector Inspector,
	settings Settings,
) *Orchestrator {
	if settings.Concurrency <= 0 {
		settings.Concurrency = 1
	}
	return &Orchestrator{
		ledger:    ledger,
		tracker:   tracker,
		renderer:  renderer,
		store:     store,
		inspector: inspector,
		settings:  settings,
	}
}

// Settings returns the orchestrator's limits.
func (o *Orchestrator) Settings() Settings {
	return o.settings
}

// OriginalKey returns the storage key of a job's uploaded file.
func OriginalKey(jobID string) string {
	return fmt.Sprintf("originals/%s.pdf", jobID)
}

// ConvertedKey returns the storage key of a job's converted file.
func ConvertedKey(jobID string) string {
	return fmt.Sprintf("converted/%s.pdf", jobID)
}

// ConvertedName derives the name of a converted file from the name of the uploaded file.
func ConvertedName(originalName string) string {
	base := filepath.Base(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_pdfa.pdf"
}

// validateBatch checks the shape of a batch before any quota is looked at.
func (o *Orchestrator) validateBatch(uploads []Upload) error {
	if len(uploads) == 0 {
		return model.NewValidationError("files", "at least one file is required")
	}
	if len(uploads) > o.settings.MaxFiles {
		return model.NewValidationError("files", "at most %d files may be converted at once", o.settings.MaxFiles)
	}
	maxBytes := int64(o.settings.MaxFileSizeKB) * 1024
	for _, u := range uploads {
		if !strings.EqualFold(filepath.Ext(u.Name), ".pdf") {
			return model.NewValidationError("files", "%s is not a PDF file", u.Name)
		}
		if maxBytes > 0 && u.Size > maxBytes {
			return model.NewValidationError("files", "%s is larger than %d KB", u.Name, o.settings.MaxFileSizeKB)
		}
	}
	return nil
}

// Convert converts a batch of uploaded files. The whole batch is refused with a *model.QuotaExceededError if the
// identity doesn't have enough conversions left for every file in it. Otherwise each file is converted
// independently; a file that fails doesn't consume quota and doesn't affect the other files.
func (o *Orchestrator) Convert(ctx context.Context, identity, userAgent string, uploads []Upload) (*BatchResult, error) {
	log := log.WithFields(logrus.Fields{"context": "convert batch", "identity": identity})

	if err := o.validateBatch(uploads); err != nil {
		return nil, err
	}

	// Admission control. This is only a pre-check: each file consumes its quota when it completes.
	record, err := o.ledger.GetOrInit(ctx, identity, o.ledger.Today())
	if err != nil {
		return nil, err
	}
	if len(uploads) > record.Remaining() {
		return nil, &model.QuotaExceededError{
			Requested: len(uploads),
			Remaining: record.Remaining(),
			Limit:     record.Limit,
			Consumed:  record.Consumed,
		}
	}

	log.Infof("converting %d files", len(uploads))

	results := make([]fileResult, len(uploads))
	var g errgroup.Group
	g.SetLimit(o.settings.Concurrency)
	for i := range uploads {
		g.Go(func() error {
			results[i] = o.convertFile(ctx, identity, userAgent, uploads[i])
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{Jobs: []model.ConversionJob{}, Errors: []FileError{}}
	for i, r := range results {
		if r.job != nil {
			batch.Jobs = append(batch.Jobs, *r.job)
			if r.job.Status == model.JobCompleted {
				batch.Success = true
			}
		}
		if r.err != "" {
			batch.Errors = append(batch.Errors, FileError{File: uploads[i].Name, Error: r.err})
		}
	}

	if batch.Usage, err = o.ledger.Info(context.WithoutCancel(ctx), identity); err != nil {
		log.Errorf("unable to look up the updated usage: %s", err)
	}

	log.Infof("batch finished: %d files, %d errors", len(uploads), len(batch.Errors))

	return batch, nil
}

type fileResult struct {
	job *model.ConversionJob
	err string
}

// convertFile runs a single file through the pipeline. Every failure after the job is created is recorded on the
// job.
func (o *Orchestrator) convertFile(ctx context.Context, identity, userAgent string, upload Upload) fileResult {
	log := log.WithFields(logrus.Fields{"context": "convert file", "identity": identity, "file": upload.Name})
	start := time.Now()

	// Bookkeeping has to happen even if the client goes away.
	bookCtx := context.WithoutCancel(ctx)

	job, err := o.tracker.Create(bookCtx, identity, upload.Name, upload.Size, userAgent)
	if err != nil {
		log.Errorf("unable to create the conversion job: %s", err)
		return fileResult{err: "unable to record the conversion"}
	}
	id := job.JobID()
	log = log.WithFields(logrus.Fields{"job": id})

	fail := func(msg string) fileResult {
		failed, err := o.tracker.Fail(bookCtx, id, msg, time.Since(start))
		if err != nil {
			log.Errorf("unable to record the failure: %s", err)
			return fileResult{job: job, err: msg}
		}
		return fileResult{job: failed, err: msg}
	}

	dir, err := os.MkdirTemp(o.settings.WorkDir, "pdfa-*")
	if err != nil {
		log.Errorf("unable to create a work directory: %s", err)
		return fail("unable to stage the uploaded file")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("unable to remove %s: %s", dir, err)
		}
	}()

	inputPath := filepath.Join(dir, "input.pdf")
	outputPath := filepath.Join(dir, "output.pdf")

	// Stage the upload.
	if err = stage(upload, inputPath); err != nil {
		log.Errorf("unable to stage the upload: %s", err)
		return fail("unable to stage the uploaded file")
	}

	// Make sure that it's actually a PDF before doing anything expensive.
	report, err := o.inspector.Inspect(ctx, inputPath)
	if err != nil {
		log.Errorf("unable to inspect the upload: %s", err)
		return fail("unable to inspect the uploaded file")
	}
	if !report.Valid {
		return fail(fmt.Sprintf("not a valid PDF file: %s", strings.Join(report.Issues, "; ")))
	}
	if o.settings.MaxPages > 0 && report.PageCount > o.settings.MaxPages {
		return fail(fmt.Sprintf("the file has %d pages; at most %d are allowed", report.PageCount, o.settings.MaxPages))
	}

	// Keep the original.
	originalKey := OriginalKey(id)
	if err = o.putFile(ctx, originalKey, inputPath); err != nil {
		log.Errorf("unable to store the original file: %s", err)
		return fail("unable to store the uploaded file")
	}
	if job, err = o.tracker.RecordOriginal(bookCtx, id, originalKey, report.PageCount); err != nil {
		log.Errorf("unable to record the original file: %s", err)
		return fail("unable to record the uploaded file")
	}

	// Convert the file.
	renderCtx, cancel := context.WithTimeout(ctx, o.settings.RenderTimeout)
	err = o.renderer.Render(renderCtx, inputPath, outputPath)
	timedOut := errors.Is(renderCtx.Err(), context.DeadlineExceeded)
	cancel()
	if timedOut {
		return fail(fmt.Sprintf("conversion timed out after %s", o.settings.RenderTimeout))
	}
	if err != nil {
		log.Errorf("conversion failed: %s", err)
		return fail(fmt.Sprintf("%s: %s", model.ErrRendererFailure, err))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return fail(fmt.Sprintf("%s: no output was produced", model.ErrRendererFailure))
	}

	// Store the converted file.
	convertedKey := ConvertedKey(id)
	if err = o.putFile(ctx, convertedKey, outputPath); err != nil {
		log.Errorf("unable to store the converted file: %s", err)
		return fail("unable to store the converted file")
	}

	// Completing the job consumes the quota.
	out := jobs.Output{Name: ConvertedName(upload.Name), Size: info.Size(), Key: convertedKey}
	completed, err := o.tracker.Complete(bookCtx, id, out, time.Since(start))
	if err != nil {
		if delErr := o.store.Delete(bookCtx, convertedKey); delErr != nil {
			log.Warnf("unable to remove the converted file: %s", delErr)
		}
		if errors.Is(err, model.ErrQuotaExceeded) {
			return fail("daily conversion limit reached")
		}
		log.Errorf("unable to complete the job: %s", err)
		return fail("unable to record the conversion")
	}

	return fileResult{job: completed}
}

// stage copies an upload to the given path.
func stage(upload Upload, path string) error {
	src, err := upload.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (o *Orchestrator) putFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return o.store.Put(ctx, key, f, info.Size(), PDFContentType)
}

// CheckUsage reports whether the identity could convert count files right now.
func (o *Orchestrator) CheckUsage(ctx context.Context, identity string, count int) (*Check, error) {
	if count < 1 {
		count = 1
	}
	usage, err := o.ledger.Info(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &Check{CanConvert: usage.Remaining >= count, Requested: count, Usage: *usage}, nil
}

// GetJob returns one of the identity's jobs.
func (o *Orchestrator) GetJob(ctx context.Context, id, identity string) (*model.ConversionJob, error) {
	return o.tracker.Get(ctx, id, identity)
}

// ListJobs returns a page of the identity's jobs.
func (o *Orchestrator) ListJobs(ctx context.Context, identity string, page, perPage int) (*model.JobPage, error) {
	return o.tracker.List(ctx, identity, page, perPage)
}

// Download opens the converted file of a completed job owned by the identity.
func (o *Orchestrator) Download(ctx context.Context, id, identity string) (*Download, error) {
	job, err := o.tracker.Get(ctx, id, identity)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobCompleted || job.ConvertedKey == nil {
		return nil, errors.Wrapf(model.ErrNotFound, "no converted file is available for job %s", id)
	}

	exists, err := o.store.Exists(ctx, *job.ConvertedKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to look up the converted file")
	}
	if !exists {
		return nil, errors.Wrapf(model.ErrNotFound, "the converted file for job %s is no longer available", id)
	}

	body, size, err := o.store.Get(ctx, *job.ConvertedKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open the converted file")
	}

	name := ConvertedName(job.OriginalName)
	if job.ConvertedName != nil {
		name = *job.ConvertedName
	}
	return &Download{Name: name, Size: size, Body: body}, nil
}

// Stats summarizes the identity's conversions.
func (o *Orchestrator) Stats(ctx context.Context, identity string) (*model.JobStats, error) {
	usage, err := o.ledger.Info(ctx, identity)
	if err != nil {
		return nil, err
	}
	total, today, err := o.tracker.Stats(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &model.JobStats{DailyUsage: *usage, TotalConversions: total, TodayConversions: today}, nil
}

// Inspect examines an uploaded file without converting it or touching the quota.
func (o *Orchestrator) Inspect(ctx context.Context, upload Upload) (*model.PDFReport, error) {
	dir, err := os.MkdirTemp(o.settings.WorkDir, "pdfa-inspect-*")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create a work directory")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.pdf")
	if err = stage(upload, path); err != nil {
		return nil, errors.Wrap(err, "unable to stage the uploaded file")
	}

	report, err := o.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	maxBytes := int64(o.settings.MaxFileSizeKB) * 1024
	if maxBytes > 0 && upload.Size > maxBytes {
		report.CanConvert = false
		report.Issues = append(report.Issues, fmt.Sprintf("the file is larger than %d KB", o.settings.MaxFileSizeKB))
	}
	if o.settings.MaxPages > 0 && report.PageCount > o.settings.MaxPages {
		report.CanConvert = false
		report.Issues = append(report.Issues, fmt.Sprintf("the file has more than %d pages", o.settings.MaxPages))
	}
	if report.CanConvert {
		report.Estimate = Estimate(upload.Size)
	}
	return report, nil
}

// Cleanup removes jobs and stored files older than retentionDays days along with old daily usage records. It returns
// the number of jobs removed.
func (o *Orchestrator) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	log := log.WithFields(logrus.Fields{"context": "cleanup"})

	cutoff := o.ledger.Now().AddDate(0, 0, -retentionDays)
	removed, err := o.tracker.Purge(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, job := range removed {
		for _, key := range []*string{job.OriginalKey, job.ConvertedKey} {
			if key == nil {
				continue
			}
			if err := o.store.Delete(ctx, *key); err != nil {
				log.Warnf("unable to remove %s: %s", *key, err)
			}
		}
	}

	if _, err = o.ledger.PurgeBefore(ctx, model.DayOf(cutoff)); err != nil {
		return len(removed), err
	}

	if len(removed) > 0 {
		log.Infof("removed %d conversion jobs older than %d days", len(removed), retentionDays)
	}
	return len(removed), nil
}
