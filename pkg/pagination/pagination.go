package pagination

import "fmt"

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any page can request.
	MaxPageSize = 100
)

// Page holds 1-based offset pagination inputs.
type Page struct {
	Number int
	Size   int
}

// New applies defaults for unset values (zero) and rejects out of range ones.
func New(number, size int, numberSet, sizeSet bool) (Page, error) {
	if !numberSet {
		number = 1
	}
	if !sizeSet {
		size = DefaultPageSize
	}
	p := Page{Number: number, Size: size}
	return p, p.Validate()
}

// Validate enforces number >= 1 and size within [1, MaxPageSize].
func (p Page) Validate() error {
	if p.Number < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	return nil
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(total / size), zero when there are no rows.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
