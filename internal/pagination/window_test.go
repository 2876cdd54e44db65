package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_FixedGroup(t *testing.T) {
	cfg := Config{Size: 10, Policy: PolicyFixedGroup}

	tests := []struct {
		name      string
		current   int
		total     int
		wantItems []int
		wantStart int
		wantEnd   int
	}{
		{"second block", 11, 25, pages(11, 20), 11, 20},
		{"end of first block", 10, 25, pages(1, 10), 1, 10},
		{"start of first block", 1, 25, pages(1, 10), 1, 10},
		{"partial last block", 23, 25, pages(21, 25), 21, 25},
		{"fewer pages than window", 2, 3, pages(1, 3), 1, 3},
		{"single page", 1, 1, []int{1}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cfg.Compute(tt.current, tt.total)
			assert.Equal(t, tt.wantItems, w.Items)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}
}

func TestCompute_Sliding(t *testing.T) {
	cfg := Config{Size: 10, Policy: PolicySliding}

	tests := []struct {
		name      string
		current   int
		total     int
		wantItems []int
	}{
		{"middle", 10, 25, pages(8, 12)},
		{"clamped at start", 1, 25, pages(1, 3)},
		{"clamped at end", 25, 25, pages(23, 25)},
		{"near start", 2, 25, pages(1, 4)},
		{"tiny total", 1, 2, pages(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cfg.Compute(tt.current, tt.total)
			assert.Equal(t, tt.wantItems, w.Items)
		})
	}
}

func TestCompute_EmptyTotal(t *testing.T) {
	for _, policy := range []Policy{PolicyFixedGroup, PolicySliding} {
		w := Config{Size: 10, Policy: policy}.Compute(1, 0)
		assert.Empty(t, w.Items)
		assert.False(t, w.CanFirst)
		assert.False(t, w.CanPrev)
		assert.False(t, w.CanNext)
		assert.False(t, w.CanLast)
	}
}

func TestCompute_NavigationFlags(t *testing.T) {
	cfg := Config{Size: 10}

	first := cfg.Compute(1, 5)
	assert.False(t, first.CanFirst)
	assert.False(t, first.CanPrev)
	assert.True(t, first.CanNext)
	assert.True(t, first.CanLast)
	assert.Equal(t, 2, first.NextPage)

	middle := cfg.Compute(3, 5)
	assert.True(t, middle.CanFirst)
	assert.True(t, middle.CanPrev)
	assert.True(t, middle.CanNext)
	assert.True(t, middle.CanLast)
	assert.Equal(t, 2, middle.PrevPage)
	assert.Equal(t, 4, middle.NextPage)

	last := cfg.Compute(5, 5)
	assert.True(t, last.CanFirst)
	assert.True(t, last.CanPrev)
	assert.False(t, last.CanNext)
	assert.False(t, last.CanLast)

	// total=1 shows page 1 as active with all navigation disabled.
	only := cfg.Compute(1, 1)
	assert.Equal(t, []int{1}, only.Items)
	assert.False(t, only.CanFirst)
	assert.False(t, only.CanPrev)
	assert.False(t, only.CanNext)
	assert.False(t, only.CanLast)
}

func TestCompute_ClampsStaleCurrentPage(t *testing.T) {
	// A deletion can leave the client on a page past the new total.
	w := Config{Size: 10}.Compute(12, 7)
	assert.Equal(t, 7, w.Current)
	assert.Equal(t, pages(1, 7), w.Items)
	assert.False(t, w.CanNext)
}

func TestCompute_WindowInvariants(t *testing.T) {
	// For all total >= 1 and 1 <= current <= total, the window contains
	// the current page and spans fewer than Size pages.
	for _, policy := range []Policy{PolicyFixedGroup, PolicySliding} {
		cfg := Config{Size: 5, Policy: policy}
		for total := 1; total <= 30; total++ {
			for current := 1; current <= total; current++ {
				w := cfg.Compute(current, total)
				assert.NotEmpty(t, w.Items)
				assert.Contains(t, w.Items, current)
				assert.LessOrEqual(t, w.Start, current)
				assert.GreaterOrEqual(t, w.End, current)
				if policy == PolicyFixedGroup {
					assert.Less(t, w.End-w.Start, cfg.Size)
				}
			}
		}
	}
}

func pages(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
