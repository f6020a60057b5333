package assets

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/matms/mat-engine/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemClosed     = errors.New("job system already shut down")
)

// Job is a unit of background work. Run executes on a worker goroutine; the
// callbacks execute on the thread that calls Submit, Update or Wait.
type Job struct {
	Name       string
	Run        func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	job    Job
	result interface{}
	err    error
}

// JobSystem runs jobs on a fixed pool of workers and hands their results
// back to the main thread.
type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	results    chan jobResult
	wg         sync.WaitGroup

	// main thread only
	pending int
	closed  bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
		results:    make(chan jobResult, channelSize+numWorkers),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				res, err := runJob(job)
				js.results <- jobResult{job: job, result: res, err: err}
			}
		}()
	}
}

// runJob turns a panicking job into a failed one so a worker never dies.
func runJob(job Job) (res interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run()
}

// Submit queues a job. While the queue is full it runs the callbacks of
// finished jobs so the workers can make progress.
func (js *JobSystem) Submit(job Job) error {
	if js.closed {
		return ErrJobSystemClosed
	}
	if job.Run == nil {
		panic(fmt.Sprintf("jobs: job %q has no Run function", job.Name))
	}
	js.pending++
	for {
		select {
		case js.jobQueue <- job:
			return nil
		case r := <-js.results:
			js.finish(r)
		}
	}
}

// Pending is the number of submitted jobs whose callbacks have not run yet.
func (js *JobSystem) Pending() int {
	return js.pending
}

// Update runs the callbacks of every finished job without blocking and
// returns how many it ran. Should happen once an update cycle.
func (js *JobSystem) Update() int {
	n := 0
	for {
		select {
		case r := <-js.results:
			js.finish(r)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every submitted job has finished and its callbacks ran.
func (js *JobSystem) Wait() {
	for js.pending > 0 {
		js.finish(<-js.results)
	}
}

func (js *JobSystem) finish(r jobResult) {
	js.pending--
	if r.err != nil {
		core.LogError("job %s failed: %s", r.job.Name, r.err)
		if r.job.OnFailure != nil {
			r.job.OnFailure(r.err)
		}
		return
	}
	if r.job.OnComplete != nil {
		r.job.OnComplete(r.result)
	}
}

// Shutdown waits for the queued jobs, runs their callbacks and stops the
// workers.
func (js *JobSystem) Shutdown() error {
	if js.closed {
		return ErrJobSystemClosed
	}
	js.closed = true
	close(js.jobQueue)
	js.Wait()
	js.wg.Wait()
	return nil
}

// LoadImages decodes paths in parallel on js. It waits for every image and
// returns the first error, if any.
func LoadImages(js *JobSystem, paths []string) (map[string]*image.RGBA, error) {
	out := make(map[string]*image.RGBA, len(paths))
	var firstErr error
	for _, p := range paths {
		p := p
		err := js.Submit(Job{
			Name: "decode " + p,
			Run: func() (interface{}, error) {
				return LoadImage(p)
			},
			OnComplete: func(res interface{}) {
				out[p] = res.(*image.RGBA)
			},
			OnFailure: func(err error) {
				if firstErr == nil {
					firstErr = err
				}
			},
		})
		if err != nil {
			return nil, err
		}
	}
	js.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
