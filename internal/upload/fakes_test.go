package upload_test

import (
	"context"
	"errors"
	"sync"

	"github.com/frahmantamala/school-core/internal/audit"
	"github.com/frahmantamala/school-core/internal/core/events"
	"github.com/frahmantamala/school-core/internal/upload"
)

type fakeStore struct {
	mu sync.Mutex

	nextID     int64
	batches    map[int64]*upload.Batch
	finalized  map[int64]int
	attendance []upload.AttendanceRecord
	exams      []upload.ExamRecord

	failApply    func(d upload.Decision) bool
	failCommit   error
	failFinalize error
	failMark     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{batches: map[int64]*upload.Batch{}, finalized: map[int64]int{}}
}

func (s *fakeStore) save(b *upload.Batch) {
	s.nextID++
	b.ID = s.nextID
	cp := *b
	s.batches[b.ID] = &cp
}

func (s *fakeStore) CreatePending(_ context.Context, b *upload.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(b)
	return nil
}

func (s *fakeStore) ApplyRow(_ context.Context, _ *upload.Batch, d upload.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failApply != nil && s.failApply(d) {
		return errors.New("constraint violation")
	}
	if d.Attendance != nil {
		s.attendance = append(s.attendance, *d.Attendance)
	}
	if d.Exam != nil {
		s.exams = append(s.exams, *d.Exam)
	}
	return nil
}

func (s *fakeStore) Finalize(_ context.Context, b *upload.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFinalize != nil {
		return s.failFinalize
	}
	stored, ok := s.batches[b.ID]
	if !ok || stored.Status != upload.StatusPending {
		return errors.New("not pending")
	}
	s.finalized[b.ID]++
	cp := *b
	s.batches[b.ID] = &cp
	return nil
}

func (s *fakeStore) MarkFinished(_ context.Context, b *upload.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark != nil {
		return s.failMark
	}
	stored, ok := s.batches[b.ID]
	if !ok || stored.Status != upload.StatusPending {
		return errors.New("not pending")
	}
	cp := *b
	cp.Outcomes = nil
	s.batches[b.ID] = &cp
	return nil
}

func (s *fakeStore) CommitAll(_ context.Context, b *upload.Batch, decisions []upload.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit != nil {
		return s.failCommit
	}
	s.save(b)
	for _, d := range decisions {
		if d.Exam != nil {
			s.exams = append(s.exams, *d.Exam)
		}
		if d.Attendance != nil {
			s.attendance = append(s.attendance, *d.Attendance)
		}
	}
	return nil
}

func (s *fakeStore) SaveRejected(_ context.Context, b *upload.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(b)
	return nil
}

func (s *fakeStore) GetBatch(_ context.Context, projectID, batchID int64) (*upload.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok || b.ProjectID != projectID {
		return nil, nil
	}
	return b, nil
}

func (s *fakeStore) ListBatches(_ context.Context, projectID int64, domain upload.Domain) ([]*upload.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*upload.Batch
	for _, b := range s.batches {
		if b.ProjectID == projectID && b.Domain == domain {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

type fakeCatalog struct {
	students upload.StudentDirectory
	exams    upload.ExamCatalog
	err      error
}

func (c *fakeCatalog) StudentDirectory(context.Context, int64) (upload.StudentDirectory, error) {
	return c.students, c.err
}

func (c *fakeCatalog) ExamCatalog(context.Context, int64) (upload.ExamCatalog, error) {
	return c.exams, c.err
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *fakeAudit) Append(_ context.Context, e audit.Entry) (audit.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return e, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}
