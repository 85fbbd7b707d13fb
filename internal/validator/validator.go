package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dailyledger/internal/model"
)

var (
	ErrNegativeValue = errors.New("数值不能为负数")
	ErrFutureDate    = errors.New("日期在未来")
)

// Policy 校验策略
type Policy struct {
	// RejectFutureDates 日期晚于今天时阻止写入
	RejectFutureDates bool
	// LargeValueThreshold 超过该值给出提醒；为 0 时不检查
	LargeValueThreshold decimal.Decimal
	// Tolerance 合计核对允许的误差
	Tolerance float64
}

// DefaultPolicy 默认策略
func DefaultPolicy() Policy {
	return Policy{
		RejectFutureDates:   true,
		LargeValueThreshold: decimal.NewFromInt(1000000),
		Tolerance:           1e-6,
	}
}

// ErrorKind 阻断性错误类型
type ErrorKind int

const (
	KindNegativeValue ErrorKind = iota + 1
	KindFutureDate
)

func (k ErrorKind) String() string {
	switch k {
	case KindNegativeValue:
		return "negative_value"
	case KindFutureDate:
		return "future_date"
	default:
		return "unknown"
	}
}

// ValidationError 阻断性校验错误
type ValidationError struct {
	Kind  ErrorKind
	Field model.Field
	Value decimal.Decimal
	Date  model.Date
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNegativeValue:
		return fmt.Sprintf("字段 %s 的值不能为负数: %s", e.Field.Label(), e.Value.String())
	case KindFutureDate:
		return fmt.Sprintf("日期 %d月%d日 在未来，请确认", e.Date.Month, e.Date.Day)
	default:
		return "校验失败"
	}
}

// Is 支持 errors.Is(err, ErrNegativeValue) 等判断
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrNegativeValue:
		return e.Kind == KindNegativeValue
	case ErrFutureDate:
		return e.Kind == KindFutureDate
	}
	return false
}

// WarningKind 提醒类型（不阻断写入）
type WarningKind int

const (
	WarnCrossCheckMismatch WarningKind = iota + 1
	WarnLargeValue
	WarnNoData
)

func (k WarningKind) String() string {
	switch k {
	case WarnCrossCheckMismatch:
		return "cross_check_mismatch"
	case WarnLargeValue:
		return "large_value"
	case WarnNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// Warning 校验提醒
type Warning struct {
	Kind     WarningKind
	Field    model.Field
	Total    model.Total
	Expected decimal.Decimal // 原文填写的合计
	Computed decimal.Decimal // 按公式计算的合计
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnCrossCheckMismatch:
		return fmt.Sprintf("%s 核对不一致: 填写 %s, 计算 %s", w.Total.Label(), w.Expected.String(), w.Computed.String())
	case WarnLargeValue:
		return fmt.Sprintf("字段 %s 的值过大: %s (请确认)", w.Field.Label(), w.Computed.String())
	case WarnNoData:
		return "所有数据字段都为空，请确认输入"
	default:
		return "未知提醒"
	}
}

// Result 校验结果
type Result struct {
	Errors   []*ValidationError
	Warnings []Warning
}

// OK 无阻断性错误
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Err 合并全部阻断性错误；无错误时返回 nil
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validator 日报数据校验器；不读取工作表
type Validator struct {
	policy Policy
	now    func() time.Time
}

// Option 校验器选项
type Option func(*Validator)

// WithClock 替换当前时间来源
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New 创建校验器
func New(policy Policy, opts ...Option) *Validator {
	v := &Validator{policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy 当前策略
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate 校验记录；declared 为原文中填写的合计（可全部缺省）
func (v *Validator) Validate(rec model.DailyRecord, declared model.DeclaredTotals) Result {
	var res Result

	for _, f := range model.AllFields() {
		amount := rec.Value(f)
		value, ok := amount.Get()
		if !ok {
			continue
		}
		if value.IsNegative() {
			res.Errors = append(res.Errors, &ValidationError{Kind: KindNegativeValue, Field: f, Value: value})
			continue
		}
		if v.policy.LargeValueThreshold.IsPositive() && value.GreaterThan(v.policy.LargeValueThreshold) {
			res.Warnings = append(res.Warnings, Warning{Kind: WarnLargeValue, Field: f, Computed: value})
		}
	}

	if v.policy.RejectFutureDates && v.isFuture(rec.Date()) {
		res.Errors = append(res.Errors, &ValidationError{Kind: KindFutureDate, Date: rec.Date()})
	}

	if !rec.HasData() {
		res.Warnings = append(res.Warnings, Warning{Kind: WarnNoData})
	}

	res.Warnings = append(res.Warnings, v.crossCheck(rec, declared)...)
	return res
}

func (v *Validator) isFuture(d model.Date) bool {
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.In(now.Year(), now.Location()).After(today)
}

// crossCheck 原文合计与公式合计比对
func (v *Validator) crossCheck(rec model.DailyRecord, declared model.DeclaredTotals) []Warning {
	tolerance := decimal.NewFromFloat(v.policy.Tolerance)

	var warnings []Warning
	for _, pair := range []struct {
		total    model.Total
		declared model.Amount
	}{
		{model.TotalGrand, declared.Grand},
		{model.TotalVenue, declared.Venue},
		{model.TotalStore, declared.Store},
	} {
		expected, ok := pair.declared.Get()
		if !ok {
			continue
		}
		computed := model.ComputeTotal(rec, pair.total)
		if expected.Sub(computed).Abs().GreaterThan(tolerance) {
			warnings = append(warnings, Warning{
				Kind:     WarnCrossCheckMismatch,
				Total:    pair.total,
				Expected: expected,
				Computed: computed,
			})
		}
	}
	return warnings
}
