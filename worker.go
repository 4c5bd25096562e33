package qsim

// Worker executes range jobs handed out by the pool.
type Worker struct {
	pool *Q
}

func (w *Worker) run() {
	for job := range w.pool.jobs {
		w.processJob(job)
	}
}

func (w *Worker) processJob(job Job) {
	defer job.done.Done()
	job.Fn(job.Lo, job.Hi)
}
