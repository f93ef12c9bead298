// Package gesture turns per-frame landmarks into binary code symbols and
// matches completed codes against a command table.
package gesture

import "github.com/ayusman/winklock/internal/detector"

// EyeState is the per-frame closure state of both eyes.
type EyeState struct {
	LeftClosed  bool `json:"left_closed"`
	RightClosed bool `json:"right_closed"`
}

// BothClosed reports the pause gesture.
func (e EyeState) BothClosed() bool { return e.LeftClosed && e.RightClosed }

// BothOpen reports that neither eye is closed.
func (e EyeState) BothOpen() bool { return !e.LeftClosed && !e.RightClosed }

// IsActivation reports whether the hand shows the thumbs-up activation pose:
// thumb tip above the thumb IP joint, index and middle tips below their PIP joints.
func IsActivation(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	p := &hand.Points
	thumbUp := p[detector.ThumbTip].Y < p[detector.ThumbIP].Y
	curled := p[detector.IndexTip].Y > p[detector.IndexPIP].Y &&
		p[detector.MiddleTip].Y > p[detector.MiddlePIP].Y
	return thumbUp && curled
}

// AnyActivation reports whether any of the hands shows the activation pose.
func AnyActivation(hands []detector.HandLandmarks) bool {
	for i := range hands {
		if IsActivation(&hands[i]) {
			return true
		}
	}
	return false
}

// EyeRatio returns the eye aperture ratio, vertical over horizontal extent.
// A zero-width eye yields 0 so it counts as closed.
func EyeRatio(face *detector.FaceLandmarks, eye detector.Eye) float64 {
	p := face.Points
	width := detector.Distance2D(p[eye.Corner[0]], p[eye.Corner[1]])
	if width == 0 {
		return 0
	}
	return detector.Distance2D(p[eye.Top], p[eye.Bottom]) / width
}

// ClassifyEyes derives the eye state of a face. The second return is false
// when there is no face or the mesh is too sparse to resolve both eyes.
func ClassifyEyes(face *detector.FaceLandmarks, threshold float64) (EyeState, bool) {
	if !face.Covers(detector.LeftEye) || !face.Covers(detector.RightEye) {
		return EyeState{}, false
	}
	return EyeState{
		LeftClosed:  EyeRatio(face, detector.LeftEye) < threshold,
		RightClosed: EyeRatio(face, detector.RightEye) < threshold,
	}, true
}
