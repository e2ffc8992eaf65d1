// Package skeleton defines the joint catalog and point types shared by every stage of the
// frame-to-gesture pipeline.
package skeleton

import "fmt"

// Joint identifies one of the tracked landmarks of a hand. Its numeric value is the
// joint's position inside a slot of the classifier input layout.
type Joint int

// Catalog order. The deployed classifier was trained on this exact layout, so the
// order must never change: four joints per finger from thumb to little finger,
// followed by the wrist.
const (
	ThumbCMC Joint = iota
	ThumbMP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	LittleMCP
	LittlePIP
	LittleDIP
	LittleTip
	Wrist
)

// Layout sizes derived from the catalog.
const (
	// NumJoints is the number of joints tracked per hand.
	NumJoints = 21
	// NumSlots is the number of hand slots in every frame result.
	NumSlots = 2
	// NumPoints is the number of points emitted per frame (slots × joints).
	NumPoints = NumSlots * NumJoints
	// FeatureLen is the length of the flattened classifier input (x, y per point).
	FeatureLen = NumPoints * 2
)

var jointNames = [NumJoints]string{
	"thumbCMC", "thumbMP", "thumbIP", "thumbTip",
	"indexMCP", "indexPIP", "indexDIP", "indexTip",
	"middleMCP", "middlePIP", "middleDIP", "middleTip",
	"ringMCP", "ringPIP", "ringDIP", "ringTip",
	"littleMCP", "littlePIP", "littleDIP", "littleTip",
	"wrist",
}

// Catalog returns every joint in catalog order.
func Catalog() []Joint {
	joints := make([]Joint, NumJoints)
	for i := range joints {
		joints[i] = Joint(i)
	}
	return joints
}

// Valid reports whether j is a member of the catalog.
func (j Joint) Valid() bool {
	return j >= 0 && int(j) < NumJoints
}

// String returns the joint name, e.g. "indexTip".
func (j Joint) String() string {
	if !j.Valid() {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// Bone connects two joints of the same hand for overlay rendering.
type Bone struct {
	From Joint
	To   Joint
}

// fingers lists each finger's joints from base to tip.
var fingers = [5][4]Joint{
	{ThumbCMC, ThumbMP, ThumbIP, ThumbTip},
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{LittleMCP, LittlePIP, LittleDIP, LittleTip},
}

// Bones returns the skeleton edges: wrist to each finger base, then along each finger.
func Bones() []Bone {
	bones := make([]Bone, 0, len(fingers)*4)
	for _, finger := range fingers {
		bones = append(bones, Bone{From: Wrist, To: finger[0]})
		for i := 0; i < len(finger)-1; i++ {
			bones = append(bones, Bone{From: finger[i], To: finger[i+1]})
		}
	}
	return bones
}
