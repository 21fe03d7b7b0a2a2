package game

import "encoding/json"

// PlaneCount is the number of planes every player must place before a match.
const PlaneCount = 3

// Board dimensions advertised to clients. Attacks outside the grid are not
// rejected, they simply miss.
const (
	Rows    = 10
	Columns = "ABCDEFGHIJ"
)

type Part string

const (
	PartHead Part = "head"
	PartBody Part = "body"
)

type Coordinate struct {
	Row  int    `json:"row"`
	Col  string `json:"col"` // single uppercase letter
	Part Part   `json:"part"`
}

// IsHead reports whether the cell is the plane's critical cell.
func (c Coordinate) IsHead() bool {
	return c.Part == PartHead
}

// MarshalJSON adds the derived isHead flag that older clients look for.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	type plain Coordinate
	return json.Marshal(struct {
		plain
		IsHead bool `json:"isHead"`
	}{plain(c), c.IsHead()})
}

// Same compares positions only; the part tag is ignored.
func (c Coordinate) Same(o Coordinate) bool {
	return c.Row == o.Row && c.Col == o.Col
}

type Plane struct {
	Coordinates []Coordinate `json:"coordinates"`
	Sunk        bool         `json:"sunk"`
}

// Clone returns a deep copy so broadcast payloads never alias room state.
func (p Plane) Clone() Plane {
	out := Plane{Sunk: p.Sunk}
	out.Coordinates = append([]Coordinate(nil), p.Coordinates...)
	return out
}

// Head returns the plane's critical cell.
func (p Plane) Head() (Coordinate, bool) {
	for _, c := range p.Coordinates {
		if c.IsHead() {
			return c, true
		}
	}
	return Coordinate{}, false
}

type Result string

const (
	ResultMiss Result = "miss"
	ResultHit  Result = "hit"
	ResultSink Result = "sink"
)

// Outcome is the resolved effect of one attack on a fleet.
type Outcome struct {
	Result     Result `json:"result"`
	PlaneIndex int    `json:"planeIndex"` // -1 on miss
}
