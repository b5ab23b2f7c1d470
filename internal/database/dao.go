package database

// FindOptions is shared pagination for list queries.
type FindOptions struct {
	Limit  int
	Offset int
}
