package entities

// Page is a window into a listing.
type Page struct {
	// Number is 1-based.
	Number int
	Size   int
}

// DefaultPageSize is used when no page size is given.
const DefaultPageSize = 20

// MaxPageSize caps the page size.
const MaxPageSize = 100

// Normalise fills in defaults and clamps the page size.
func (p Page) Normalise() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Skip is the number of records before the page.
func (p Page) Skip() int64 {
	return int64((p.Number - 1) * p.Size)
}

// TotalPages returns the number of pages needed for total records.
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
