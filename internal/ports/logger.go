package ports

import "github.com/bft-labs/sheetbridge/pkg/log"

// Logger is the structured logger used across layers.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for callers that only import ports.
var (
	String   = log.String
	Int      = log.Int
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
)
