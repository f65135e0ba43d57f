package video

import "math"

//BoundingBox is an axis aligned box in source-frame pixel coordinates
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

//Center returns the middle point of the box
func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

//MaxSide returns the longer of the box's two sides
func (b BoundingBox) MaxSide() float64 {
	return math.Max(b.Width, b.Height)
}

//Scale multiplies all coordinates by given factor
func (b BoundingBox) Scale(factor float64) BoundingBox {
	return BoundingBox{
		X:      b.X * factor,
		Y:      b.Y * factor,
		Width:  b.Width * factor,
		Height: b.Height * factor,
	}
}

//Detection is one detector output for one frame
type Detection struct {
	Class string      `json:"class"`
	Score float64     `json:"score"`
	BBox  BoundingBox `json:"bbox"`
}

//Prediction is one ranked classifier output
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}
