package repo

import (
	"context"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
)

// IdentityRepo persists the local client identity. Load reports a typed
// absence instead of inventing a fallback; choosing a default is the
// caller's decision.
type IdentityRepo interface {
	Load(ctx context.Context) (identity domain.Identity, found bool, err error)
	Save(ctx context.Context, identity domain.Identity) error
	Close() error
}
