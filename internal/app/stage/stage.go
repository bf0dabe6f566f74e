// Package stage drives the microscope stage. Only a logging stub exists for now.
package stage

import (
	"context"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/rs/zerolog/log"
)

type Mover interface {
	Move(ctx context.Context, dir domain.Direction) error
}

// LogMover accepts every direction and only logs it.
type LogMover struct{}

func (LogMover) Move(_ context.Context, dir domain.Direction) error {
	log.Info().Str("module", "stage").Str("direction", string(dir)).Msg("move stage")
	return nil
}
