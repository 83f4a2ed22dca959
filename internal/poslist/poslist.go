// Package poslist implements the position-list encoder/decoder of spec.md
// §4.5: the concatenation, in ingest order, of each document's position
// sequence, delta-coded against the previous position *within the same
// document* (the first position of each document is absolute).
package poslist

// Block is the parallel-array cache for one decoded position-list block.
type Block struct {
	PositionDeltas []uint32
	StartTtf       uint64 // cumulative position index of PositionDeltas[0]
	Len            int
}
