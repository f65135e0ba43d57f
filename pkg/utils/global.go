package utils

//DefaultClassColorHex is the box colour for classes without an own entry in ClassColorsHex
const DefaultClassColorHex = "#2ecc71"

//ClassColorsHex maps detector classes to the colour their boxes are drawn with
var ClassColorsHex = map[string]string{
	"person": "#ff6961", //coral red
	"car":    "#61a8ff", //light blue
	"dog":    "#ffb361", //light orange
	"cat":    "#61ffa8", //light green
}

//ImageExtensions are the file extensions accepted as still image sources
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

//StatusLoading and friends are the states shown next to a component's status message
const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusError   = "error"
)
