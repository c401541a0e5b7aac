package memory

import (
	"context"
	"testing"

	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	storetest.Seed(t, s)

	got, _ := s.GetState(ctx, storetest.Vault)
	got.Rate = 1

	again, _ := s.GetState(ctx, storetest.Vault)
	if again.Rate != 50 {
		t.Errorf("mutating a read changed stored state: rate %d", again.Rate)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name          string
		offset, limit int
		want          []int
	}{
		{"everything", 0, 0, []int{0, 1, 2, 3, 4}},
		{"window", 1, 2, []int{1, 2}},
		{"limit past end", 3, 10, []int{3, 4}},
		{"offset past end", 9, 1, []int{}},
		{"negative offset", -3, 2, []int{0, 1}},
		{"negative limit", 2, -1, []int{2, 3, 4}},
		{"both negative", -1, -1, []int{0, 1, 2, 3, 4}},
		{"huge limit", 1, int(^uint(0) >> 1), []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(items, tt.offset, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
