package landmarks

import "math"

// NumFeatures is the length of the extracted feature vector:
// 5 tip-to-wrist distances, their mean, tip bounding-box width and
// height, pinch distance, index-middle distance, 3 inter-finger angle
// cosines, full bounding-box area, and 10 wrist-relative tip
// coordinates.
const NumFeatures = 24

// angleEps regularizes the cosine denominator so near-zero MCP
// vectors stay finite.
const angleEps = 1e-6

var (
	tipIdx = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
	mcpIdx = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
)

func dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Features converts one hand into the fixed 24-scalar geometric
// feature vector. The transform is stateless and deterministic;
// feature order is fixed and must match between training and
// inference. Relative distances and angles make the vector
// approximately invariant to hand position within the frame.
func Features(h Hand) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	wrist := h[Wrist]
	f := make([]float64, 0, NumFeatures)

	// Tip-to-wrist distances, thumb through pinky, plus their mean.
	var sum float64
	for _, ti := range tipIdx {
		d := dist(h[ti], wrist)
		f = append(f, d)
		sum += d
	}
	f = append(f, sum/float64(len(tipIdx)))

	// Fingertip spread: bounding box over the five tips.
	minX, maxX := h[tipIdx[0]].X, h[tipIdx[0]].X
	minY, maxY := h[tipIdx[0]].Y, h[tipIdx[0]].Y
	for _, ti := range tipIdx[1:] {
		minX = math.Min(minX, h[ti].X)
		maxX = math.Max(maxX, h[ti].X)
		minY = math.Min(minY, h[ti].Y)
		maxY = math.Max(maxY, h[ti].Y)
	}
	f = append(f, maxX-minX, maxY-minY)

	// Pinch distance and index-middle separation.
	f = append(f, dist(h[ThumbTip], h[IndexTip]))
	f = append(f, dist(h[IndexTip], h[MiddleTip]))

	// Cosine of the angle between adjacent MCP vectors from the wrist.
	for i := 0; i < len(mcpIdx)-1; i++ {
		ax := h[mcpIdx[i]].X - wrist.X
		ay := h[mcpIdx[i]].Y - wrist.Y
		bx := h[mcpIdx[i+1]].X - wrist.X
		by := h[mcpIdx[i+1]].Y - wrist.Y
		den := math.Sqrt(ax*ax+ay*ay)*math.Sqrt(bx*bx+by*by) + angleEps
		f = append(f, (ax*bx+ay*by)/den)
	}

	// Bounding-box area over all 21 points, a crude hand-size proxy.
	aMinX, aMaxX := h[0].X, h[0].X
	aMinY, aMaxY := h[0].Y, h[0].Y
	for _, p := range h[1:] {
		aMinX = math.Min(aMinX, p.X)
		aMaxX = math.Max(aMaxX, p.X)
		aMinY = math.Min(aMinY, p.Y)
		aMaxY = math.Max(aMaxY, p.Y)
	}
	f = append(f, (aMaxX-aMinX)*(aMaxY-aMinY))

	// Wrist-relative tip coordinates, tip order as above.
	for _, ti := range tipIdx {
		f = append(f, h[ti].X-wrist.X, h[ti].Y-wrist.Y)
	}

	return f, nil
}
