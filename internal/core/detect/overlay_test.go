package detect

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestComputeOverlayLetterboxHorizontal 上下留边（显示区域更宽）
func TestComputeOverlayLetterboxHorizontal(t *testing.T) {
	out := ComputeOverlay(1920, 1080, 960, 600, [][4]float64{{100, 100, 300, 300}})

	if !almostEqual(out.Scale, 0.5) {
		t.Fatalf("scale 期望 0.5，实际 %v", out.Scale)
	}
	// 渲染高度 1080*0.5=540，垂直偏移 (600-540)/2=30
	if !almostEqual(out.OffsetX, 0) || !almostEqual(out.OffsetY, 30) {
		t.Fatalf("偏移不符: x=%v y=%v", out.OffsetX, out.OffsetY)
	}
	box := out.Boxes[0]
	want := [4]float64{50, 80, 150, 180}
	for i := range want {
		if !almostEqual(box[i], want[i]) {
			t.Fatalf("盒子坐标不符: got=%v want=%v", box, want)
		}
	}
}

// TestComputeOverlayLetterboxVertical 左右留边（显示区域更窄）
func TestComputeOverlayLetterboxVertical(t *testing.T) {
	out := ComputeOverlay(1920, 1080, 480, 540, [][4]float64{{0, 0, 1920, 1080}})

	// scale = min(480/1920, 540/1080) = 0.25
	if !almostEqual(out.Scale, 0.25) {
		t.Fatalf("scale 期望 0.25，实际 %v", out.Scale)
	}
	// 渲染宽 480，水平偏移 0；渲染高 270，垂直偏移 (540-270)/2=135
	if !almostEqual(out.OffsetX, 0) || !almostEqual(out.OffsetY, 135) {
		t.Fatalf("偏移不符: x=%v y=%v", out.OffsetX, out.OffsetY)
	}
	box := out.Boxes[0]
	if !almostEqual(box[0], 0) || !almostEqual(box[1], 135) || !almostEqual(box[2], 480) || !almostEqual(box[3], 405) {
		t.Fatalf("全图盒子应铺满渲染区: %v", box)
	}
}

// TestComputeOverlayInvalidDims 非法尺寸返回空结果而不崩溃
func TestComputeOverlayInvalidDims(t *testing.T) {
	out := ComputeOverlay(0, 1080, 960, 600, [][4]float64{{1, 2, 3, 4}})
	if len(out.Boxes) != 0 {
		t.Fatal("非法尺寸应返回空盒子列表")
	}
}

// TestConfidencePercent 两种刻度统一为百分比
func TestConfidencePercent(t *testing.T) {
	if got := ConfidencePercent(0.87); !almostEqual(got, 87) {
		t.Fatalf("0.87 期望 87，实际 %v", got)
	}
	if got := ConfidencePercent(87); !almostEqual(got, 87) {
		t.Fatalf("87 期望 87，实际 %v", got)
	}
	if got := NormalizeConfidence(1.0); !almostEqual(got, 1.0) {
		t.Fatalf("1.0 不应被缩放，实际 %v", got)
	}
}
