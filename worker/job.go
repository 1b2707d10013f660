package worker

import (
	"time"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// Job is one message text to parse.
type Job struct {
	// ID identifies the job in its result.
	ID string

	// Text is the ER7 message text.
	Text string
}

// JobResult is the outcome of one parse job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Message is the parsed message, nil when Err is set.
	Message *hl7v2.Message

	// Warnings holds the recovered problems of a tolerant parse.
	Warnings []hl7v2.Warning

	// Err is the parse failure, if any.
	Err error

	// Duration is the time taken to parse.
	Duration time.Duration
}

// BatchResult aggregates the results of a pool run.
type BatchResult struct {
	// Results contains all job results, in completion order.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed, including failures.
	CompletedJobs int

	// TotalDuration is the summed parse time across all jobs.
	TotalDuration time.Duration
}

// FailedJobs returns the number of results carrying an error.
func (br *BatchResult) FailedJobs() int {
	n := 0
	for _, r := range br.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Messages returns the successfully parsed messages, in result order.
func (br *BatchResult) Messages() []*hl7v2.Message {
	out := make([]*hl7v2.Message, 0, len(br.Results))
	for _, r := range br.Results {
		if r.Err == nil && r.Message != nil {
			out = append(out, r.Message)
		}
	}
	return out
}
