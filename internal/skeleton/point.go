package skeleton

// Point is a display-space coordinate or the Absent marker. Absent is tracked with
// Valid rather than overloading (0, 0), which is a reachable coordinate after
// normalization.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Valid bool    `json:"valid"`
}

// Absent marks a joint with no confident detection.
var Absent = Point{}

// Pt returns a valid point at (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y, Valid: true}
}

// Landmark is one joint as reported by the pose-estimation capability, in its
// normalized [0,1]×[0,1] space, with the capability's confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Hand is one detected hand skeleton, indexed by Joint.
type Hand struct {
	Landmarks  [NumJoints]Landmark `json:"landmarks"`
	Handedness string              `json:"handedness"` // "Left" or "Right"
	Score      float64             `json:"score"`
}

// Slot holds one hand's points in joint order.
type Slot [NumJoints]Point

// AbsentSlot returns a slot where every joint is Absent.
func AbsentSlot() Slot {
	return Slot{}
}

// HasValid reports whether any joint in the slot is valid.
func (s *Slot) HasValid() bool {
	for _, p := range s {
		if p.Valid {
			return true
		}
	}
	return false
}

// Points is the per-frame point sequence: slot 0 joints followed by slot 1 joints.
type Points [NumPoints]Point

// Join lays out two slots in slot order.
func Join(slots [NumSlots]Slot) Points {
	var pts Points
	for s := range slots {
		copy(pts[s*NumJoints:(s+1)*NumJoints], slots[s][:])
	}
	return pts
}

// Slot returns slot i of the sequence.
func (p *Points) Slot(i int) Slot {
	var s Slot
	copy(s[:], p[i*NumJoints:(i+1)*NumJoints])
	return s
}

// At returns the point of joint j in slot i.
func (p *Points) At(slot int, j Joint) Point {
	return p[slot*NumJoints+int(j)]
}

// HasValid reports whether any point of the frame is valid.
func (p *Points) HasValid() bool {
	for _, pt := range p {
		if pt.Valid {
			return true
		}
	}
	return false
}

// ValidCount returns the number of valid points.
func (p *Points) ValidCount() int {
	n := 0
	for _, pt := range p {
		if pt.Valid {
			n++
		}
	}
	return n
}
