package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"paykit/internal/domain"
)

// handlerBudget bounds one background invocation, standing in for the
// platform's task expiration signal.
const handlerBudget = 2 * time.Minute

// TimerScheduler is a process-local stand-in for the platform background
// task capability: it invokes registered handlers when the scheduled time
// arrives, handing each a context that expires after a fixed budget.
type TimerScheduler struct {
	log *zap.Logger

	mu       sync.Mutex
	handlers map[string]domain.TaskHandler
	timer    *time.Timer
	stopped  bool
}

func NewTimerScheduler(log *zap.Logger) *TimerScheduler {
	return &TimerScheduler{log: log, handlers: make(map[string]domain.TaskHandler)}
}

func (s *TimerScheduler) RegisterHandler(taskID string, handler domain.TaskHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[taskID] = handler
}

// ScheduleNext arms the timer for the earliest allowed invocation,
// replacing any previously scheduled one.
func (s *TimerScheduler) ScheduleNext(earliest time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(time.Until(earliest), s.fire)
	return nil
}

// Stop cancels any pending invocation.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *TimerScheduler) fire() {
	s.mu.Lock()
	handlers := make(map[string]domain.TaskHandler, len(s.handlers))
	for id, h := range s.handlers {
		handlers[id] = h
	}
	s.mu.Unlock()

	for id, h := range handlers {
		ctx, cancel := context.WithTimeout(context.Background(), handlerBudget)
		if err := h(ctx); err != nil {
			s.log.Warn("background task failed", zap.String("task_id", id), zap.Error(err))
		}
		cancel()
	}
}

var _ domain.Scheduler = (*TimerScheduler)(nil)
