package store

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/gesture"
	"github.com/ayusman/winklock/internal/session"
)

// Recorder is a session observer that stores one Attempt per completed
// code entry. Write failures are logged and do not affect the session.
type Recorder struct {
	attempts *AttemptRepository
	logger   *zap.Logger
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{attempts: s.Attempts(), logger: logger}
}

// Observe implements session.Observer.
func (r *Recorder) Observe(e session.Event) {
	if e.Kind != session.EventResult {
		return
	}

	a := &Attempt{
		ID:          uuid.New().String(),
		Result:      ResultFail,
		CommandName: e.Result.CommandName,
		ActionID:    e.Result.ActionID,
		Code:        gesture.FormatCode(e.Sequence),
		MaxDigit:    e.MaxDigit,
		CreatedAt:   e.At,
	}
	if e.Result.Matched {
		a.Result = ResultSuccess
	}

	if err := r.attempts.Create(a); err != nil {
		r.logger.Error("failed to record attempt", zap.String("code", a.Code), zap.Error(err))
	}
}
