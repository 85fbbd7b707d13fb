package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StyleGroup 样式分组：样式只由列决定，与行内容无关
type StyleGroup int

const (
	GroupDate    StyleGroup = iota // 日期
	GroupPrimary                   // 小计与充值类
	GroupVenue                     // 场地入账明细
	GroupStore                     // 云店商品
	GroupTotals                    // 合计

	StyleGroupCount int = iota
)

func (g StyleGroup) String() string {
	switch g {
	case GroupDate:
		return "date"
	case GroupPrimary:
		return "primary"
	case GroupVenue:
		return "venue"
	case GroupStore:
		return "store"
	case GroupTotals:
		return "totals"
	default:
		return "unknown"
	}
}

// StyleProfile 单个分组的填充色、字体与对齐
type StyleProfile struct {
	FillColor  string  `toml:"fill_color" json:"fillColor"`
	FontColor  string  `toml:"font_color" json:"fontColor"`
	FontFamily string  `toml:"font_family" json:"fontFamily"`
	FontSize   float64 `toml:"font_size" json:"fontSize"`
	Bold       bool    `toml:"bold" json:"bold"`
	Horizontal string  `toml:"horizontal" json:"horizontal"`
}

// StyleSheet 五个分组的样式配置；构造后不可修改
type StyleSheet struct {
	profiles [StyleGroupCount]StyleProfile
}

// DefaultStyleSheet 账本默认样式
func DefaultStyleSheet() StyleSheet {
	base := StyleProfile{FontFamily: "Cambria", FontSize: 11, Horizontal: "center"}
	with := func(fill, font string) StyleProfile {
		p := base
		p.FillColor = fill
		p.FontColor = font
		return p
	}

	var s StyleSheet
	s.profiles[GroupDate] = with("#B4A7D6", "#FFFFFF")
	s.profiles[GroupPrimary] = with("#366092", "#FFFF00")
	s.profiles[GroupVenue] = with("#5B9BD5", "#000000")
	s.profiles[GroupStore] = with("#5B9BD5", "#000000")
	s.profiles[GroupTotals] = with("#F4CCCC", "#CC0000")
	return s
}

// NewStyleSheet 从完整的五组配置构造样式表
func NewStyleSheet(profiles map[StyleGroup]StyleProfile) (StyleSheet, error) {
	var s StyleSheet
	for g := 0; g < StyleGroupCount; g++ {
		p, ok := profiles[StyleGroup(g)]
		if !ok {
			return StyleSheet{}, fmt.Errorf("缺少样式分组: %s", StyleGroup(g))
		}
		s.profiles[g] = p.normalized()
	}
	return s, nil
}

// Profile 某分组的样式
func (s StyleSheet) Profile(g StyleGroup) StyleProfile {
	if int(g) < 0 || int(g) >= StyleGroupCount {
		return StyleProfile{}
	}
	return s.profiles[g]
}

// SeedStyleSheet 从参考行读取每个分组的样式（在初始化时调用一次）
//
// 参考行某列缺少的属性沿用默认样式。
func SeedStyleSheet(f *excelize.File, sheet string, row RowIndex) (StyleSheet, error) {
	seeded := DefaultStyleSheet()
	done := map[StyleGroup]bool{}

	for _, c := range columns {
		if done[c.Group] {
			continue
		}
		done[c.Group] = true

		id, err := f.GetCellStyle(sheet, cellName(c.Name, row))
		if err != nil {
			return StyleSheet{}, fmt.Errorf("读取参考行样式失败 %s: %w", cellName(c.Name, row), err)
		}
		if id == 0 {
			continue
		}
		style, err := f.GetStyle(id)
		if err != nil {
			return StyleSheet{}, fmt.Errorf("读取参考行样式失败 %s: %w", cellName(c.Name, row), err)
		}
		seeded.profiles[c.Group] = mergeProfile(seeded.profiles[c.Group], style)
	}
	return seeded, nil
}

func mergeProfile(p StyleProfile, style *excelize.Style) StyleProfile {
	if style == nil {
		return p
	}
	if len(style.Fill.Color) > 0 && style.Fill.Color[0] != "" {
		p.FillColor = style.Fill.Color[0]
	}
	if style.Font != nil {
		if style.Font.Color != "" {
			p.FontColor = style.Font.Color
		}
		if style.Font.Family != "" {
			p.FontFamily = style.Font.Family
		}
		if style.Font.Size > 0 {
			p.FontSize = style.Font.Size
		}
		p.Bold = style.Font.Bold
	}
	if style.Alignment != nil && style.Alignment.Horizontal != "" {
		p.Horizontal = style.Alignment.Horizontal
	}
	return p.normalized()
}

func (p StyleProfile) normalized() StyleProfile {
	p.FillColor = normalizeColor(p.FillColor)
	p.FontColor = normalizeColor(p.FontColor)
	return p
}

// normalizeColor 统一为 #RRGGBB（去掉 ARGB 的透明度）
func normalizeColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) == 8 {
		c = c[2:]
	}
	if c == "" {
		return ""
	}
	return "#" + strings.ToUpper(c)
}

func (p StyleProfile) excelizeStyle() *excelize.Style {
	style := &excelize.Style{
		Font: &excelize.Font{
			Family: p.FontFamily,
			Size:   p.FontSize,
			Color:  p.FontColor,
			Bold:   p.Bold,
		},
		Alignment: &excelize.Alignment{Horizontal: p.Horizontal},
	}
	if p.FillColor != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{p.FillColor}, Pattern: 1}
	}
	return style
}

// register 在工作簿中登记五个分组样式，返回样式 ID
func (s StyleSheet) register(f *excelize.File) (map[StyleGroup]int, error) {
	ids := make(map[StyleGroup]int, StyleGroupCount)
	for g := 0; g < StyleGroupCount; g++ {
		id, err := f.NewStyle(s.profiles[g].excelizeStyle())
		if err != nil {
			return nil, fmt.Errorf("创建样式 %s 失败: %w", StyleGroup(g), err)
		}
		ids[StyleGroup(g)] = id
	}
	return ids, nil
}
