// Package scan walks a directory tree, decodes every candidate file and
// files the results into a record.Collection.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/mrsinham/dicomtree/internal/dicom/decode"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/logging"
	"github.com/mrsinham/dicomtree/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrInvalidRoot is returned when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("scan: root is not a readable directory")

// Status is the final state of a scan.
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusCancelled {
		return "cancelled"
	}
	return "completed"
}

// MarshalText renders the status by name in JSON and YAML documents.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ProgressFunc receives the cumulative number of candidate files considered
// and the number discovered. It is called from the scanning goroutine.
type ProgressFunc func(considered, total int)

// Summary counts what a scan saw.
type Summary struct {
	Discovered int           `json:"discovered" yaml:"discovered"`
	Considered int           `json:"considered" yaml:"considered"`
	Decoded    int           `json:"decoded" yaml:"decoded"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Ignored    int           `json:"ignored" yaml:"ignored"`
	Duplicates int           `json:"duplicates" yaml:"duplicates"`
	Counts     record.Counts `json:"counts" yaml:"counts"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Outcome is the result of Scan. Collection is nil when the scan was
// cancelled.
type Outcome struct {
	Status     Status
	Collection *record.Collection
	Summary    Summary
}

// Options configures a Scanner.
type Options struct {
	Decoder  decode.Decoder // nil = decode.NewFileDecoder()
	Workers  int            // 0 = runtime.NumCPU()
	Progress ProgressFunc
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics // optional
	// NewPatientID generates the identifier of a record that has none.
	// nil = "ANON-" followed by a random UUID.
	NewPatientID func() string
}

// Scanner ingests a directory tree. A Scanner may run several scans, one at
// a time or concurrently; each scan owns its own Collection.
type Scanner struct {
	opts Options
	log  zerolog.Logger
}

// New creates a scanner.
func New(opts Options) *Scanner {
	if opts.Decoder == nil {
		opts.Decoder = decode.NewFileDecoder()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.NewPatientID == nil {
		opts.NewPatientID = syntheticPatientID
	}
	return &Scanner{
		opts: opts,
		log:  logging.Component(opts.Logger, "scan"),
	}
}

// fileResult is the decode outcome of the file at index.
type fileResult struct {
	index int
	rec   *decode.Record
	err   error
	dir   bool // DICOMDIR, never decoded
}

// Scan walks root and returns the assembled collection. The only error is
// ErrInvalidRoot; unreadable or non-DICOM files are skipped and cancellation
// is reported through Outcome.Status.
func (s *Scanner) Scan(ctx context.Context, root string) (Outcome, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return Outcome{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	start := time.Now()
	s.opts.Metrics.ScanStarted()
	s.log.Info().Str("root", root).Int("workers", s.opts.Workers).Msg("scan started")

	var sum Summary
	finish := func(status Status, c *record.Collection) (Outcome, error) {
		sum.Duration = time.Since(start)
		if c != nil {
			sum.Counts = c.Counts()
			s.opts.Metrics.ObserveCollection(sum.Counts)
		}
		s.opts.Metrics.ScanFinished(status.String(), sum.Duration)
		s.log.Info().
			Str("status", status.String()).
			Int("considered", sum.Considered).
			Int("decoded", sum.Decoded).
			Int("skipped", sum.Skipped).
			Int("patients", sum.Counts.Patients).
			Int("instances", sum.Counts.Instances).
			Dur("duration", sum.Duration).
			Msg("scan finished")
		return Outcome{Status: status, Collection: c, Summary: sum}, nil
	}

	if ctx.Err() != nil {
		return finish(StatusCancelled, nil)
	}

	files, cancelled := s.listFiles(ctx, root)
	if cancelled {
		return finish(StatusCancelled, nil)
	}
	sum.Discovered = len(files)

	c, cancelled := s.ingest(ctx, files, &sum)
	if cancelled {
		return finish(StatusCancelled, nil)
	}
	return finish(StatusCompleted, c)
}

// ingest decodes files on a worker pool and merges the records in discovery
// order, so the collection matches a sequential scan.
func (s *Scanner) ingest(ctx context.Context, files []string, sum *Summary) (*record.Collection, bool) {
	c := record.NewCollection()
	if len(files) == 0 {
		return c, false
	}

	wctx, stop := context.WithCancel(ctx)

	numWorkers := s.opts.Workers
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	taskChan := make(chan int)
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				if wctx.Err() != nil {
					continue
				}
				resultChan <- s.decodeFile(i, files[i])
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for i := range files {
			select {
			case taskChan <- i:
			case <-wctx.Done():
				return
			}
		}
	}()

	defer func() {
		stop()
		wg.Wait()
	}()

	pending := make(map[int]fileResult)
	for next := 0; next < len(files); next++ {
		if ctx.Err() != nil {
			return nil, true
		}

		res, ok := pending[next]
		for !ok {
			select {
			case r := <-resultChan:
				pending[r.index] = r
				res, ok = pending[next]
			case <-ctx.Done():
				return nil, true
			}
		}
		delete(pending, next)

		s.merge(c, res, sum)
		sum.Considered++
		if s.opts.Progress != nil {
			s.opts.Progress(sum.Considered, len(files))
		}
	}
	return c, false
}

func (s *Scanner) decodeFile(index int, path string) fileResult {
	if isDICOMDIR(path) {
		return fileResult{index: index, dir: true}
	}
	rec, err := s.opts.Decoder.Decode(path)
	return fileResult{index: index, rec: rec, err: err}
}

// merge files one decode result into c.
func (s *Scanner) merge(c *record.Collection, res fileResult, sum *Summary) {
	switch {
	case res.dir:
		sum.Ignored++
		s.opts.Metrics.FileConsidered(metrics.ResultIgnored)
	case res.err != nil:
		sum.Skipped++
		s.opts.Metrics.FileConsidered(metrics.ResultSkipped)
		s.log.Debug().Err(res.err).Msg("skipping file")
	default:
		sum.Decoded++
		s.opts.Metrics.FileConsidered(metrics.ResultDecoded)
		if !Insert(c, res.rec, s.opts.NewPatientID) {
			sum.Duplicates++
			s.log.Debug().
				Str("path", res.rec.Path).
				Str("instance_uid", res.rec.InstanceUID).
				Msg("duplicate instance ignored")
		}
	}
}
