package detector

import "github.com/ayusman/bebas/internal/skeleton"

// Preset skeletons in capability space (x down the sensor, y across it), all joints
// reported with the given confidence.

// HandAt returns a compact hand whose wrist sits at (x, y) with every joint at conf.
// The remaining joints fan out toward smaller x in small steps.
func HandAt(x, y, conf float64) skeleton.Hand {
	hand := skeleton.Hand{Handedness: "Right", Score: conf}
	hand.Landmarks[skeleton.Wrist] = skeleton.Landmark{X: x, Y: y, Confidence: conf}

	for j := skeleton.ThumbCMC; j < skeleton.Wrist; j++ {
		finger := float64(j / 4)
		knuckle := float64(j%4 + 1)
		hand.Landmarks[j] = skeleton.Landmark{
			X:          x - 0.02*knuckle,
			Y:          y - 0.04 + 0.02*finger,
			Confidence: conf,
		}
	}
	return hand
}

// ThumbsUpHand returns a preset hand with the thumb extended and the other fingers curled.
func ThumbsUpHand() skeleton.Hand {
	return presetHand([skeleton.NumJoints][2]float64{
		{0.75, 0.55}, {0.65, 0.58}, {0.50, 0.58}, {0.35, 0.58}, // thumb
		{0.70, 0.55}, {0.68, 0.55}, {0.70, 0.52}, {0.72, 0.50}, // index
		{0.68, 0.50}, {0.66, 0.50}, {0.68, 0.47}, {0.70, 0.45}, // middle
		{0.70, 0.45}, {0.68, 0.45}, {0.70, 0.42}, {0.72, 0.40}, // ring
		{0.72, 0.40}, {0.70, 0.40}, {0.72, 0.37}, {0.74, 0.35}, // little
		{0.80, 0.50}, // wrist
	})
}

// OpenPalmHand returns a preset hand with every finger extended.
func OpenPalmHand() skeleton.Hand {
	return presetHand([skeleton.NumJoints][2]float64{
		{0.75, 0.55}, {0.70, 0.62}, {0.65, 0.68}, {0.60, 0.73},
		{0.68, 0.55}, {0.55, 0.57}, {0.45, 0.58}, {0.35, 0.58},
		{0.66, 0.50}, {0.52, 0.50}, {0.40, 0.50}, {0.28, 0.50},
		{0.68, 0.45}, {0.55, 0.43}, {0.45, 0.42}, {0.35, 0.42},
		{0.70, 0.40}, {0.60, 0.37}, {0.50, 0.35}, {0.42, 0.34},
		{0.80, 0.50},
	})
}

func presetHand(xy [skeleton.NumJoints][2]float64) skeleton.Hand {
	hand := skeleton.Hand{Handedness: "Right", Score: 0.95}
	for j, p := range xy {
		hand.Landmarks[j] = skeleton.Landmark{X: p[0], Y: p[1], Confidence: 0.95}
	}
	return hand
}
