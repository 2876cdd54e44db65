// Package pagination computes the windowed set of page-number controls shown
// on list pages.
//
// Two windowing policies exist because the board screens and the admin user
// screens historically paged differently:
//
//   - PolicyFixedGroup partitions pages into contiguous blocks of Size pages
//     starting at 1. The block only moves when the current page crosses a
//     block boundary, so the numbers stay put while paging within a block.
//   - PolicySliding centers the window on the current page
//     (start = current-2, end = current+2, clamped to [1, total]).
//
// The policy is a configuration choice per list page, never hard-coded in
// the computation.
package pagination

// Policy selects the windowing strategy.
type Policy int

const (
	// PolicyFixedGroup groups pages into stable blocks of Size pages.
	PolicyFixedGroup Policy = iota
	// PolicySliding centers a window of up to five pages on the current page.
	PolicySliding
)

// slidingRadius is the number of pages shown on each side of the current
// page under PolicySliding.
const slidingRadius = 2

// Config controls window computation for one list page.
type Config struct {
	Size   int // Pages per window under PolicyFixedGroup; must be >= 1
	Policy Policy
}

// Window is the computed set of pagination controls. It is a pure value:
// the caller is responsible for turning Items into links and wiring the
// navigation targets.
type Window struct {
	Start int   // First page number in the window (0 when Items is empty)
	End   int   // Last page number in the window (0 when Items is empty)
	Items []int // Ordered page numbers to render as controls

	Current  int // Clamped 1-based current page
	Total    int // Total page count
	PrevPage int // Target for the "previous" control (valid iff CanPrev)
	NextPage int // Target for the "next" control (valid iff CanNext)

	CanFirst bool // First page exists and differs from current
	CanPrev  bool // Previous page exists
	CanNext  bool // Next page exists
	CanLast  bool // Last page exists and differs from current
}

// Compute returns the window of page numbers to display for the given
// 1-based current page and total page count.
//
// total = 0 yields an empty window with every navigation flag false, which
// callers use to suppress rendering entirely. A current page beyond total
// (stale state after a deletion) is clamped to total before windowing.
func (c Config) Compute(current, total int) Window {
	if total <= 0 {
		return Window{Total: 0}
	}

	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	size := c.Size
	if size < 1 {
		size = 1
	}

	var start, end int
	switch c.Policy {
	case PolicySliding:
		start = current - slidingRadius
		if start < 1 {
			start = 1
		}
		end = current + slidingRadius
		if end > total {
			end = total
		}
	default: // PolicyFixedGroup
		start = (current-1)/size*size + 1
		end = start + size - 1
		if end > total {
			end = total
		}
	}

	items := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		items = append(items, i)
	}

	return Window{
		Start:    start,
		End:      end,
		Items:    items,
		Current:  current,
		Total:    total,
		PrevPage: current - 1,
		NextPage: current + 1,
		CanFirst: current > 1,
		CanPrev:  current > 1,
		CanNext:  current < total,
		CanLast:  current < total,
	}
}
