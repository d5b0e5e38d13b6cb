package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*ScanJob
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*ScanJob),
	}
}

// Create records a new in-progress job.
func (s *JobStore) Create(req *ScanRequest, mode, strategy string, now time.Time) ScanJob {
	job := ScanJob{
		ID:         newScanID(),
		Object:     "scan",
		CreatedAt:  now.Unix(),
		Status:     statusInProgress,
		Background: req.Background != nil && *req.Background,
		Mode:       mode,
		Strategy:   strategy,
		N:          len(req.Values),
	}
	s.mu.Lock()
	s.jobs[job.ID] = &job
	s.mu.Unlock()
	return job
}

// Finish moves a job out of in_progress. It reports false when the job was
// deleted in the meantime.
func (s *JobStore) Finish(id string, output []int32, err error, now time.Time) (ScanJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ScanJob{}, false
	}
	completedAt := now.Unix()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = statusFailed
		job.Error = &ResponseError{Message: err.Error(), Type: "device_error"}
	} else {
		job.Status = statusCompleted
		job.Output = output
	}
	return *job, true
}

func (s *JobStore) Get(id string) (ScanJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ScanJob{}, false
	}
	return *job, true
}

func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

func newScanID() string {
	return "scan_" + uuid.NewString()
}
