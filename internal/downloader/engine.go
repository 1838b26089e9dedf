package downloader

import (
	"context"
	"os"
	"sort"
	"sync"

	"canvasctl/internal/domain"
	"canvasctl/internal/manifest"
)

// Fetcher is the streaming download half of the Canvas client.
type Fetcher interface {
	DownloadFile(ctx context.Context, url, destination string) (int64, string, string, error)
}

// Options configures one engine run.
type Options struct {
	// Force disables change-detection skips.
	Force bool

	// Concurrency is the worker pool width. Values below 1 run a
	// single worker.
	Concurrency int

	// Progress, when set, receives completed/scheduled counts as
	// downloads finish. It is a side-channel, not part of the
	// result contract.
	Progress func(completed, total int)
}

// Run executes the task list against a bounded worker pool and
// returns one result per task, sorted by (course id, file id, status)
// for deterministic manifest ordering. Unchanged files are skipped
// without a network call unless Force is set. A task failure never
// aborts its siblings.
func Run(ctx context.Context, fetcher Fetcher, tasks []domain.DownloadTask, previous map[int]manifest.Item, opts Options) []domain.DownloadResult {
	results := make([]domain.DownloadResult, 0, len(tasks))
	var scheduled []domain.DownloadTask

	for _, task := range tasks {
		prev, havePrev := previous[task.File.FileID]
		if !opts.Force && havePrev && isUnchanged(task, prev) {
			results = append(results, domain.DownloadResult{
				Task:   task,
				Status: domain.StatusSkipped,
				SHA256: prev.SHA256,
				ETag:   prev.ETag,
			})
			continue
		}
		scheduled = append(scheduled, task)
	}

	if len(scheduled) > 0 {
		workers := opts.Concurrency
		if workers < 1 {
			workers = 1
		}
		if workers > len(scheduled) {
			workers = len(scheduled)
		}

		jobs := make(chan domain.DownloadTask)
		done := make(chan domain.DownloadResult)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for task := range jobs {
					done <- downloadOne(ctx, fetcher, task)
				}
			}()
		}

		go func() {
			for _, task := range scheduled {
				jobs <- task
			}
			close(jobs)
			wg.Wait()
			close(done)
		}()

		completed := 0
		for result := range done {
			results = append(results, result)
			completed++
			if opts.Progress != nil {
				opts.Progress(completed, len(scheduled))
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Task.CourseID != b.Task.CourseID {
			return a.Task.CourseID < b.Task.CourseID
		}
		if a.Task.File.FileID != b.Task.File.FileID {
			return a.Task.File.FileID < b.Task.File.FileID
		}
		return a.Status < b.Status
	})

	return results
}

func downloadOne(ctx context.Context, fetcher Fetcher, task domain.DownloadTask) domain.DownloadResult {
	bytesDownloaded, sum, etag, err := fetcher.DownloadFile(ctx, task.File.DownloadURL, task.LocalPath)
	if err != nil {
		return domain.DownloadResult{
			Task:   task,
			Status: domain.StatusFailed,
			Error:  err.Error(),
		}
	}
	return domain.DownloadResult{
		Task:            task,
		Status:          domain.StatusDownloaded,
		BytesDownloaded: bytesDownloaded,
		SHA256:          sum,
		ETag:            etag,
	}
}

// isUnchanged applies the skip rule: a previous downloaded record, a
// local file still on disk, matching sizes and timestamps when both
// sides know them. Any missing information fails open into a
// re-download.
func isUnchanged(task domain.DownloadTask, prev manifest.Item) bool {
	if prev.Status != domain.StatusDownloaded {
		return false
	}
	if _, err := os.Stat(task.LocalPath); err != nil {
		return false
	}
	if task.File.Size != nil {
		if prev.Size == nil || *prev.Size != *task.File.Size {
			return false
		}
	}
	if task.File.UpdatedAt != "" && prev.UpdatedAt != "" && prev.UpdatedAt != task.File.UpdatedAt {
		return false
	}
	return true
}
