package detect

// Overlay 缩放视图下的边界框叠加层几何
type Overlay struct {
	Scale   float64      `json:"scale"`
	OffsetX float64      `json:"offset_x"`
	OffsetY float64      `json:"offset_y"`
	Boxes   [][4]float64 `json:"boxes"`
}

// ComputeOverlay 计算边界框在展示容器中的位置
//
// 图片按等比缩放放入容器，容器比例不一致时上下或左右留边（letterbox）。
// 统一缩放系数取 min(displayW/naturalW, displayH/naturalH)，
// 居中偏移为 (容器宽 - 渲染宽)/2，坐标变换 scaled = raw*scale + offset，
// 保证边界框在任意容器比例下与图片对齐。
func ComputeOverlay(naturalW, naturalH, displayW, displayH float64, boxes [][4]float64) Overlay {
	if naturalW <= 0 || naturalH <= 0 || displayW <= 0 || displayH <= 0 {
		return Overlay{Boxes: [][4]float64{}}
	}

	scale := displayW / naturalW
	if s := displayH / naturalH; s < scale {
		scale = s
	}
	offsetX := (displayW - naturalW*scale) / 2
	offsetY := (displayH - naturalH*scale) / 2

	out := make([][4]float64, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, [4]float64{
			b[0]*scale + offsetX,
			b[1]*scale + offsetY,
			b[2]*scale + offsetX,
			b[3]*scale + offsetY,
		})
	}
	return Overlay{Scale: scale, OffsetX: offsetX, OffsetY: offsetY, Boxes: out}
}

// ConfidencePercent 置信度转百分比显示值，与 NormalizeConfidence 同一刻度规则
func ConfidencePercent(v float64) float64 {
	return NormalizeConfidence(v) * 100
}
