package consensus

import "errors"

var (
	ErrNilBlock          = errors.New("nil block")
	ErrInvalidConfig     = errors.New("invalid consensus config")
	ErrNoCandidateAtEdge = errors.New("no candidate block at frozen edge + 1")
)
