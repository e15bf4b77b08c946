package services

// PageRequest selects one page of a list, pages start at 1
type PageRequest struct {
	Page int
	Size int
}

// Offset is the number of rows before the page
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}
