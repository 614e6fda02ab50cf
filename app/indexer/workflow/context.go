package workflow

import (
	"github.com/canopy-network/ammx/pkg/temporal"
)

// Config holds the workflow configuration.
type Config struct {
	// ContinueAsNewBatches is the number of batches a run processes before continuing as new.
	ContinueAsNewBatches int
}

// Context holds the workflow context.
type Context struct {
	TemporalClient *temporal.Client
	Config         Config
}
