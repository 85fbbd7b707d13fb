package model

import "encoding/json"

// DailyRecord 一天的日报数据
//
// 通过 NewDailyRecord 构造后不可修改。
type DailyRecord struct {
	date   Date
	values [FieldCount]Amount
}

// NewDailyRecord 构造日报记录；values 中未出现的字段视为未填报
func NewDailyRecord(date Date, values map[Field]Amount) DailyRecord {
	r := DailyRecord{date: date}
	for f, v := range values {
		if f.Valid() {
			r.values[f] = v
		}
	}
	return r
}

// Date 日报日期
func (r DailyRecord) Date() Date {
	return r.date
}

// Value 某字段的金额
func (r DailyRecord) Value(f Field) Amount {
	if !f.Valid() {
		return Absent()
	}
	return r.values[f]
}

// PresentFields 已填报的字段（按列顺序）
func (r DailyRecord) PresentFields() []Field {
	var fields []Field
	for i, v := range r.values {
		if v.IsPresent() {
			fields = append(fields, Field(i))
		}
	}
	return fields
}

// HasData 是否至少有一个字段已填报
func (r DailyRecord) HasData() bool {
	for _, v := range r.values {
		if v.IsPresent() {
			return true
		}
	}
	return false
}

// Values 全部字段的副本
func (r DailyRecord) Values() map[Field]Amount {
	out := make(map[Field]Amount, FieldCount)
	for i, v := range r.values {
		out[Field(i)] = v
	}
	return out
}

// MarshalJSON {"date":"10-28","meituan":144,"douyin":null,...}
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, FieldCount+1)
	m["date"] = r.date.String()
	for i, v := range r.values {
		m[Field(i).Key()] = v
	}
	return json.Marshal(m)
}

// DeclaredTotals 原文中填写的小计/总计（不入库，仅用于核对）
type DeclaredTotals struct {
	Venue Amount `json:"venue"` // 场地入账金额
	Store Amount `json:"store"` // 云店销售
	Grand Amount `json:"grand"` // 当日总计
}
