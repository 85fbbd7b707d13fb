package model

// Field 日报中的录入字段（13 个，按工作表列顺序排列）
type Field int

const (
	FieldMeituan                 Field = iota // 大众美团
	FieldStoredCardRedemption                 // 储值卡核销
	FieldDouyin                               // 抖音
	FieldCoachingRedemption                   // 教练课核销
	FieldWechat                               // 微信
	FieldAlipay                               // 支付宝
	FieldWater                                // 水
	FieldGatorade                             // 佳得乐
	FieldOther                                // 其他
	FieldTrialClass                           // 体验课
	FieldStoredCardRecharge                   // 储值卡充值
	FieldPrivateCoachingRecharge              // 私教课充值
	FieldMonthlyCard                          // 月卡

	FieldCount int = iota
)

// Section 字段所属分组
type Section string

const (
	SectionVenue    Section = "venue"    // 场地入账
	SectionStore    Section = "store"    // 云店销售
	SectionTrial    Section = "trial"    // 体验课
	SectionRecharge Section = "recharge" // 充值
	SectionCard     Section = "card"     // 月卡
)

type fieldInfo struct {
	key     string
	label   string
	section Section
}

var fieldTable = [FieldCount]fieldInfo{
	FieldMeituan:                 {key: "meituan", label: "大众美团", section: SectionVenue},
	FieldStoredCardRedemption:    {key: "stored_card_redemption", label: "储值卡核销", section: SectionVenue},
	FieldDouyin:                  {key: "douyin", label: "抖音", section: SectionVenue},
	FieldCoachingRedemption:      {key: "coaching_redemption", label: "教练课核销", section: SectionVenue},
	FieldWechat:                  {key: "wechat", label: "微信", section: SectionVenue},
	FieldAlipay:                  {key: "alipay", label: "支付宝", section: SectionVenue},
	FieldWater:                   {key: "water", label: "水", section: SectionStore},
	FieldGatorade:                {key: "gatorade", label: "佳得乐", section: SectionStore},
	FieldOther:                   {key: "other", label: "其他", section: SectionStore},
	FieldTrialClass:              {key: "trial_class", label: "体验课", section: SectionTrial},
	FieldStoredCardRecharge:      {key: "stored_card_recharge", label: "储值卡充值", section: SectionRecharge},
	FieldPrivateCoachingRecharge: {key: "private_coaching_recharge", label: "私教课充值", section: SectionRecharge},
	FieldMonthlyCard:             {key: "monthly_card", label: "月卡", section: SectionCard},
}

// AllFields 按列顺序返回全部录入字段
func AllFields() []Field {
	fields := make([]Field, FieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// FieldsInSection 返回某分组下的字段
func FieldsInSection(section Section) []Field {
	var fields []Field
	for i, info := range fieldTable {
		if info.section == section {
			fields = append(fields, Field(i))
		}
	}
	return fields
}

// Valid 是否为已知字段
func (f Field) Valid() bool {
	return f >= 0 && int(f) < FieldCount
}

// Key 内部字段名（snake_case），用于 JSON 与日志
func (f Field) Key() string {
	if !f.Valid() {
		return "unknown"
	}
	return fieldTable[f].key
}

// Label 模板中的中文标签
func (f Field) Label() string {
	if !f.Valid() {
		return "未知字段"
	}
	return fieldTable[f].label
}

// Section 字段分组
func (f Field) Section() Section {
	if !f.Valid() {
		return ""
	}
	return fieldTable[f].section
}

func (f Field) String() string {
	return f.Key()
}

// FieldByKey 根据内部字段名查找字段
func FieldByKey(key string) (Field, bool) {
	for i, info := range fieldTable {
		if info.key == key {
			return Field(i), true
		}
	}
	return 0, false
}
