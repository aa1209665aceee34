package worker

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cozy-creator/meme-engine/internal/generation"
	"github.com/cozy-creator/meme-engine/internal/services/filestorage"
	"github.com/cozy-creator/meme-engine/internal/utils/hashutil"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/gammazero/workerpool"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

// Generator is the part of the generation engine a batch needs.
type Generator interface {
	Generate(req generation.Request) (*generation.Result, error)
}

var ErrStopped = errors.New("batch renderer is stopped")

type Job struct {
	Name    string
	Request generation.Request
}

type JobResult struct {
	Job    Job
	Result *generation.Result
	// Location is where storage put the image, empty without storage.
	Location string
	Err      error
}

// BatchRenderer generates many memes concurrently on a fixed worker pool and
// optionally stores every image.
type BatchRenderer struct {
	wp        *workerpool.WorkerPool
	generator Generator
	storage   filestorage.FileStorage
	progress  io.Writer
	log       *zap.Logger

	mu      sync.Mutex
	stopped bool
}

func NewBatchRenderer(generator Generator, storage filestorage.FileStorage, maxWorkers int, log *zap.Logger) *BatchRenderer {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &BatchRenderer{
		wp:        workerpool.New(maxWorkers),
		generator: generator,
		storage:   storage,
		log:       logger.OrNop(log),
	}
}

// WithProgress draws a progress bar to w while Run is working. Without it
// the bar is discarded.
func (b *BatchRenderer) WithProgress(w io.Writer) *BatchRenderer {
	b.progress = w
	return b
}

// Stop waits for queued jobs and releases the workers. Stop is terminal:
// later Run calls fail every job with ErrStopped.
func (b *BatchRenderer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.stopped = true
	b.wp.StopWait()
}

// Run generates every job and returns the results in job order. A failing job
// is reported in its JobResult and does not stop the others.
func (b *BatchRenderer) Run(jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		for i, job := range jobs {
			results[i] = JobResult{Job: job, Err: ErrStopped}
		}
		return results
	}

	output := b.progress
	if output == nil {
		output = io.Discard
	}
	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
		mpb.WithOutput(output),
	)
	bar := progress.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name("rendering", decor.WC{W: 12, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		b.wp.Submit(func() {
			defer wg.Done()
			defer bar.Increment()
			results[i] = b.run(job)
		})
	}

	wg.Wait()
	progress.Wait()

	return results
}

func (b *BatchRenderer) run(job Job) JobResult {
	log := b.log.With(zap.String("job", job.Name))
	res := JobResult{Job: job}

	result, err := b.generator.Generate(job.Request)
	if err != nil {
		log.Warn("job failed", zap.Error(err))
		res.Err = err
		return res
	}
	res.Result = result

	if b.storage == nil {
		return res
	}

	file := filestorage.NewFileInfo(hashutil.Blake3Hash(result.Output.Data), result.Output.Extension(), result.Output.Data)
	location, err := b.storage.Upload(file)
	if err != nil {
		log.Warn("failed to store image", zap.Error(err))
		res.Err = fmt.Errorf("failed to store image: %w", err)
		return res
	}

	res.Location = location
	log.Info("job done", zap.String("path", string(result.Path)), zap.String("location", location))
	return res
}
