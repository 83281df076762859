package grid

// GetGridCoords maps a row-major cell index onto (x, y) for a grid cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}
