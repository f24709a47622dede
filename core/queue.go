package core

import "github.com/clusterstats/stathub/message"

// RequestQueue is the unbounded FIFO of jobs waiting for an idle worker.
// It is owned by the dispatcher loop and must only be touched from there;
// a job leaves the queue exactly once, when a worker goes idle while the
// queue is non-empty.
type RequestQueue struct {
	jobs []message.Job
}

// NewRequestQueue creates an empty queue.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{}
}

// Push appends a job to the tail.
func (q *RequestQueue) Push(job message.Job) {
	q.jobs = append(q.jobs, job)
}

// Pop removes and returns the head job. The second return is false when
// the queue is empty.
func (q *RequestQueue) Pop() (message.Job, bool) {
	if len(q.jobs) == 0 {
		return message.Job{}, false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, true
}

// Len returns the number of queued jobs.
func (q *RequestQueue) Len() int {
	return len(q.jobs)
}
