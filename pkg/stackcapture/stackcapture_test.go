package stackcapture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func captureHelper() Stack {
	return Capture(0, DefaultMaxFrames)
}

func TestCaptureNonEmpty(t *testing.T) {
	s := captureHelper()
	require.Greater(t, s.Len(), 0)
}

func TestCaptureZeroMax(t *testing.T) {
	s := Capture(0, 0)
	require.Equal(t, 0, s.Len())
}

func TestCaptureNegativeMax(t *testing.T) {
	s := Capture(0, -1)
	require.Equal(t, 0, s.Len())
}

func TestCaptureSkipReducesFrameCount(t *testing.T) {
	unskipped := Capture(0, DefaultMaxFrames)
	skipped := Capture(1, DefaultMaxFrames)
	require.LessOrEqual(t, skipped.Len(), unskipped.Len())
}

func TestCaptureDeterministicAtSameSite(t *testing.T) {
	var got [2]Stack
	for i := range got {
		got[i] = captureHelper()
	}
	require.True(t, got[0].Equal(got[1]), "two captures at the same call site should match frame for frame")
}

func TestCaptureRespectsMax(t *testing.T) {
	s := Capture(0, 2)
	require.LessOrEqual(t, s.Len(), 2)
}

func TestDropOuterTrimsFromTail(t *testing.T) {
	s := captureHelper()
	trimmed := s.DropOuter(1)
	require.Equal(t, s.Len()-1, trimmed.Len())
	require.Equal(t, s.PCs()[:trimmed.Len()], trimmed.PCs())
}

func TestDropOuterZeroOrNegativeIsNoop(t *testing.T) {
	s := captureHelper()
	require.True(t, s.Equal(s.DropOuter(0)))
	require.True(t, s.Equal(s.DropOuter(-1)))
}

func TestDropOuterAllFramesYieldsEmpty(t *testing.T) {
	s := captureHelper()
	require.Equal(t, 0, s.DropOuter(s.Len()).Len())
	require.Equal(t, 0, s.DropOuter(s.Len()+10).Len())
}
