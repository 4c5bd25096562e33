package qsim

import "sync"

// Job runs Fn over the task indices [Lo, Hi) of one parallel call.
type Job struct {
	Lo, Hi int
	Fn     func(lo, hi int)
	done   *sync.WaitGroup
}
