// Package detector provides landmark detection interfaces and types for hand and face tracking.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FaceMeshPoints is the number of landmarks in a MediaPipe face mesh.
// Refined meshes carry 478 points; the first 468 share the same layout.
const FaceMeshPoints = 468

// Eye names the four face mesh landmarks that bound one eye.
type Eye struct {
	Name   string
	Corner [2]int // horizontal extent
	Top    int
	Bottom int
}

// Eye landmark sets in face mesh index space. Left and right are from the
// subject's point of view on a mirrored frame.
var (
	LeftEye  = Eye{Name: "left", Corner: [2]int{33, 133}, Top: 159, Bottom: 145}
	RightEye = Eye{Name: "right", Corner: [2]int{362, 263}, Top: 386, Bottom: 374}
)

// maxIndex returns the highest landmark index used by the eye.
func (e Eye) maxIndex() int {
	m := e.Top
	for _, i := range []int{e.Corner[0], e.Corner[1], e.Bottom} {
		if i > m {
			m = i
		}
	}
	return m
}

// Point3D represents a 3D point in normalized image coordinates.
// Y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FaceLandmarks represents a face mesh detected by MediaPipe.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Covers reports whether the mesh is dense enough to resolve the given eye.
func (f *FaceLandmarks) Covers(e Eye) bool {
	return f != nil && len(f.Points) > e.maxIndex()
}

// Detection holds everything found in a single frame. Either slice may be
// empty; an empty detection is a valid frame state, not an error.
type Detection struct {
	Hands []HandLandmarks `json:"hands"`
	Faces []FaceLandmarks `json:"faces"`
}

// Face returns the first detected face or nil.
func (d Detection) Face() *FaceLandmarks {
	if len(d.Faces) == 0 {
		return nil
	}
	return &d.Faces[0]
}
