package domain

// Page mirrors the upstream API's page envelope. Number is 0-based, matching
// the wire format; presentation code converts to 1-based page numbers.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// CurrentPage returns the 1-based page number for display.
func (p Page[T]) CurrentPage() int {
	return p.Number + 1
}

// Empty reports whether the page holds no records at all.
func (p Page[T]) Empty() bool {
	return len(p.Content) == 0
}
