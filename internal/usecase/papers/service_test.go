package papers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/paper"
)

type mockReader struct {
	papers  map[string]paper.Paper
	indexed map[string]bool
}

func (m *mockReader) Get(_ context.Context, id string) (paper.Paper, error) {
	p, ok := m.papers[id]
	if !ok {
		return paper.Paper{}, domain.ErrPaperNotFound
	}
	return p, nil
}

func (m *mockReader) IsIndexed(_ context.Context, id string) (bool, error) {
	if _, ok := m.papers[id]; !ok {
		return false, domain.ErrPaperNotFound
	}
	return m.indexed[id], nil
}

func TestGet(t *testing.T) {
	p, err := paper.New("2404.01234", "Attention Everywhere", nil, nil, time.Now(), "")
	if err != nil {
		t.Fatalf("paper.New: %v", err)
	}
	svc := New(&mockReader{
		papers:  map[string]paper.Paper{"2404.01234": p},
		indexed: map[string]bool{"2404.01234": true},
	})

	detail, err := svc.Get(context.Background(), "2404.01234")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.Paper.ID() != "2404.01234" {
		t.Errorf("id = %q", detail.Paper.ID())
	}
	if !detail.Indexed {
		t.Error("expected indexed=true")
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockReader{})

	_, err := svc.Get(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrPaperNotFound) {
		t.Errorf("err = %v, want ErrPaperNotFound", err)
	}
}
