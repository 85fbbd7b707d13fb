package parser

import (
	"sort"
	"unicode/utf8"

	"dailyledger/internal/model"
)

// labelTarget 标签对应的字段，或不入库的小计/总计
type labelTarget struct {
	label    string
	field    model.Field
	total    model.Total
	declared bool
}

// labelTable 模板标签（按模板顺序）
var labelTable = []labelTarget{
	{label: "场地入账金额", total: model.TotalVenue, declared: true},
	{label: "大众美团", field: model.FieldMeituan},
	{label: "储值卡核销", field: model.FieldStoredCardRedemption},
	{label: "抖音", field: model.FieldDouyin},
	{label: "教练课核销", field: model.FieldCoachingRedemption},
	{label: "微信", field: model.FieldWechat},
	{label: "支付宝", field: model.FieldAlipay},
	{label: "云店销售", total: model.TotalStore, declared: true},
	{label: "水", field: model.FieldWater},
	{label: "佳得乐", field: model.FieldGatorade},
	{label: "其他", field: model.FieldOther},
	{label: "体验课", field: model.FieldTrialClass},
	{label: "储值卡充值", field: model.FieldStoredCardRecharge},
	{label: "私教课充值", field: model.FieldPrivateCoachingRecharge},
	{label: "私教课", field: model.FieldPrivateCoachingRecharge},
	{label: "月卡", field: model.FieldMonthlyCard},
	{label: "当日总计", total: model.TotalGrand, declared: true},
}

// matchOrder 长标签优先，避免“私教课”吞掉“私教课充值”
var matchOrder = func() []labelTarget {
	ordered := make([]labelTarget, len(labelTable))
	copy(ordered, labelTable)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].label) > utf8.RuneCountInString(ordered[j].label)
	})
	return ordered
}()

// Labels 全部可识别的标签（按模板顺序）
func Labels() []string {
	out := make([]string, len(labelTable))
	for i, t := range labelTable {
		out[i] = t.label
	}
	return out
}
