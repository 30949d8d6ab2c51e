package interfaces

import (
	"context"

	"github.com/customeros/dmarc-summaries/dto"
)

type DmarcSummaryJob interface {
	Execute(ctx context.Context) (*dto.RunResult, error)
	// Start claims the run and executes it in the background. It fails with
	// ErrRunInProgress when another run holds the job.
	Start(ctx context.Context) error
	Running() bool
	// LastResult returns the result of the latest finished run, or nil.
	LastResult() *dto.RunResult
}
