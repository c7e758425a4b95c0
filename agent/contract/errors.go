package contract

import "errors"

var (
	ErrModelInvoke      = errors.New("model invoke failed")
	ErrSchemaViolation  = errors.New("model response violates schema")
	ErrOracleParse      = errors.New("routing decision unparseable")
	ErrValidation       = errors.New("validation failed")
	ErrToolNotFound     = errors.New("tool not found")
	ErrToolExecution    = errors.New("tool execution failed")
	ErrTransientStorage = errors.New("transient storage contention")
)
