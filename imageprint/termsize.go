package imageprint

// TermSize is the terminal window in character cells and, if known, pixels.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}
