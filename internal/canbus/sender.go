package canbus

import (
	"context"

	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// Sender encodes solutions and writes them with a rolling counter.
type Sender struct {
	w       Writer
	id      uint32
	counter uint8
	logger  *zap.Logger
}

func NewSender(w Writer, id uint32, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{w: w, id: id, logger: logger}
}

func (s *Sender) Send(ctx context.Context, sol *pmsm.Solution, status pmsm.Status) error {
	f, err := EncodeSolution(s.id, sol, status, s.counter)
	if err != nil {
		return err
	}

	if err := s.w.WriteFrame(ctx, f); err != nil {
		s.logger.Warn("can write failed",
			zap.String("op", "canbus.Sender.Send"),
			zap.Uint32("id", s.id),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("can frame sent",
		zap.Stringer("frame", f),
		zap.Uint8("counter", s.counter),
	)
	s.counter++
	return nil
}

func (s *Sender) Close() error {
	return s.w.Close()
}
