package panel

import "context"

// Confirmer answers the yes/no question asked before a delete.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type staticConfirmer bool

func (s staticConfirmer) Confirm(context.Context, string) bool { return bool(s) }

var (
	// AlwaysConfirm accepts every prompt.
	AlwaysConfirm Confirmer = staticConfirmer(true)
	// NeverConfirm declines every prompt.
	NeverConfirm Confirmer = staticConfirmer(false)
)
