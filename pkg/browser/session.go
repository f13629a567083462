package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uitest/pkg/evidence"
)

// Session is one live engine/context/page triple. The test borrows the page;
// the session owns every handle and closes each exactly once.
type Session struct {
	id        string
	desc      Descriptor
	testName  string
	manager   *Manager
	startedAt time.Time

	instance Instance
	context  Context
	page     Page
	tracing  bool

	tracePath string
	videoPath string

	mu          sync.Mutex
	state       State
	transitions []State
	outcome     error
	outcomeSet  bool
	closedAt    time.Time

	closeOnce sync.Once
	report    *TeardownReport
}

// ID is the unique session identifier.
func (s *Session) ID() string { return s.id }

// Descriptor is the parameterization the session was opened with.
func (s *Session) Descriptor() Descriptor { return s.desc }

// TestName is the owning test, possibly empty.
func (s *Session) TestName() string { return s.testName }

// Page returns the library page for the test body.
func (s *Session) Page() playwright.Page {
	if s.page == nil {
		return nil
	}
	return s.page.Handle()
}

// TracePath is where the trace archive is written on close.
func (s *Session) TracePath() string { return s.tracePath }

// VideoPath is the renamed video, known after Close.
func (s *Session) VideoPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoPath
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transitions returns every state the session has been in, in order.
func (s *Session) Transitions() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = to
	s.transitions = append(s.transitions, to)
}

func (s *Session) setOutcome(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = err
	s.outcomeSet = true
}

// Close tears the session down. It is safe to call more than once; later
// calls return the first report.
func (s *Session) Close() *TeardownReport {
	return s.teardown()
}

// failSetup logs err at CRITICAL, tears down what was acquired and wraps both.
func (s *Session) failSetup(stage Stage, err error) error {
	log := s.manager.logger
	log.Criticalf("session %s setup failed at %s (%s, test %s): %T: %v",
		s.id, stage, s.desc, displayName(s.testName), err, err)

	report := s.teardown()
	return &SetupError{
		Stage:       stage,
		Descriptor:  s.desc,
		Err:         err,
		Teardown:    report,
		Transitions: s.Transitions(),
	}
}

// teardown stops tracing, closes context and engine, then renames the video.
// Each step runs only if its resource was acquired, and a failing step never
// stops the ones after it.
func (s *Session) teardown() *TeardownReport {
	s.closeOnce.Do(func() {
		log := s.manager.logger
		r := s.report

		if s.tracing {
			s.transition(StateTeardownTracing)
			if err := r.run(StepTracing, func() error { return s.context.StopTracing(s.tracePath) }); err != nil {
				s.manager.namer.Release(s.tracePath)
			}
		} else if s.tracePath != "" {
			s.manager.namer.Release(s.tracePath)
		}

		if s.context != nil {
			s.transition(StateTeardownContext)
			r.run(StepContext, s.context.Close)
		}

		if s.instance != nil {
			s.transition(StateTeardownEngine)
			r.run(StepEngine, s.instance.Close)
		}

		if s.page != nil {
			s.transition(StateTeardownVideo)
			r.run(StepVideo, s.renameVideo)
		}

		s.mu.Lock()
		s.closedAt = s.manager.now()
		s.mu.Unlock()
		s.transition(StateClosed)

		for _, f := range r.Failures() {
			log.Errorf("session %s: %v", s.id, f)
		}
		log.Infof("session %s closed (%s)", s.id, r)
	})
	return s.report
}

// renameVideo moves the recorded video to <ts>[_<test>].<ext>.
func (s *Session) renameVideo() error {
	src, err := s.page.VideoPath()
	if err != nil {
		return fmt.Errorf("resolve video path: %w", err)
	}
	if src == "" {
		s.manager.logger.Debugf("session %s recorded no video", s.id)
		return nil
	}

	dir := s.manager.opts.VideoDir
	if dir == "" {
		dir = filepath.Dir(src)
	}

	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".webm"
	}

	dst, err := s.manager.namer.Claim(dir, evidence.VideoName(s.startedAt, s.testName, ext))
	if err != nil {
		return fmt.Errorf("name video: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		s.manager.namer.Release(dst)
		return fmt.Errorf("rename %s: %w", src, err)
	}

	s.mu.Lock()
	s.videoPath = dst
	s.mu.Unlock()
	return nil
}

// Record summarizes the session for the run report. testErr is the test
// body's result; Run records it automatically.
func (s *Session) Record(testErr error) evidence.SessionRecord {
	s.mu.Lock()
	if testErr == nil && s.outcomeSet {
		testErr = s.outcome
	}
	end := s.closedAt
	video := s.videoPath
	s.mu.Unlock()

	if end.IsZero() {
		end = s.manager.now()
	}

	rec := evidence.SessionRecord{
		ID:         s.id,
		Descriptor: s.desc.String(),
		Test:       s.testName,
		Outcome:    evidence.OutcomePassed,
		StartTime:  s.startedAt,
		Duration:   end.Sub(s.startedAt),
		TracePath:  s.tracePath,
		VideoPath:  video,
	}
	if testErr != nil {
		rec.Outcome = evidence.OutcomeFailed
		rec.Error = testErr.Error()
	}
	for _, f := range s.report.Failures() {
		rec.TeardownFailures = append(rec.TeardownFailures, f.Error())
	}
	return rec
}

// SetupRecord summarizes a session that never reached IN_TEST.
func SetupRecord(desc Descriptor, testName string, start time.Time, err error) evidence.SessionRecord {
	rec := evidence.SessionRecord{
		Descriptor: desc.String(),
		Test:       testName,
		Outcome:    evidence.OutcomeSetupFailed,
		StartTime:  start,
		Error:      err.Error(),
	}
	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		for _, f := range setupErr.Teardown.Failures() {
			rec.TeardownFailures = append(rec.TeardownFailures, f.Error())
		}
	}
	return rec
}
