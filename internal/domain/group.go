package domain

// Group is a topic that posts may optionally belong to.
type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

func (g Group) String() string {
	return g.Title
}
