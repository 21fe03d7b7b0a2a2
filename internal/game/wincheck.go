package game

// AllSunk reports whether every plane of a fleet has been sunk. An empty
// fleet is never considered defeated.
func AllSunk(fleet []Plane) bool {
	if len(fleet) == 0 {
		return false
	}
	for _, p := range fleet {
		if !p.Sunk {
			return false
		}
	}
	return true
}
