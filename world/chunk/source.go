package chunk

// Coord identifies a chunk column by its x/z chunk-grid position.
type Coord struct {
	X, Z int32
}

// Source is the injected boundary the chunk-column serializer pulls from;
// the core never assumes where chunks come from.
type Source interface {
	Fetch(coord Coord) (*Column, error)
}
