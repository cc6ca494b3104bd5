package models

import "strings"

// PulsePositions 九宫格固定脉位（寸关尺 × 浮中沉），顺序固定
var PulsePositions = []string{
	"cun-fu", "guan-fu", "chi-fu",
	"cun-zhong", "guan-zhong", "chi-zhong",
	"cun-chen", "guan-chen", "chi-chen",
}

// OverallDescriptionKey 整体脉象描述的键
const OverallDescriptionKey = "overall_description"

// PulseGrid 九宫格脉象记录
// 键为脉位（可带 left-/right- 前缀区分左右手），值为自由文本描述。
// 缺键等价于空串。
type PulseGrid map[string]string

// NewPulseGrid 创建空白九宫格
func NewPulseGrid() PulseGrid {
	return PulseGrid{}
}

// Get 读取指定脉位的描述，缺键返回空串
func (g PulseGrid) Get(key string) string {
	if g == nil {
		return ""
	}
	return g[key]
}

// Set 写入指定脉位的描述；空白值等价于删除该键
func (g PulseGrid) Set(key, value string) {
	if g == nil {
		return
	}
	if strings.TrimSpace(value) == "" {
		delete(g, key)
		return
	}
	g[key] = value
}

// IsEmpty 所有脉位均为空白时返回 true
func (g PulseGrid) IsEmpty() bool {
	for _, v := range g {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Clone 深拷贝（用于异步请求的快照，避免后续编辑影响在途请求）
func (g PulseGrid) Clone() PulseGrid {
	out := make(PulseGrid, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}
