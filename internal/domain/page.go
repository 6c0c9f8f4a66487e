package domain

// Page is one slice of a newest-first post listing.
type Page struct {
	Number   int
	Size     int
	Total    int
	NumPages int
	Posts    []Post
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) PreviousNumber() int {
	if p.Number > 1 {
		return p.Number - 1
	}
	return 1
}

func (p Page) NextNumber() int {
	return p.Number + 1
}
