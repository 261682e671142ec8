package papers

import (
	"context"

	"github.com/citeworthy/paperdex/internal/domain/paper"
)

// Reader is the repository surface the detail service needs (ISP).
type Reader interface {
	Get(ctx context.Context, id string) (paper.Paper, error)
	IsIndexed(ctx context.Context, id string) (bool, error)
}
