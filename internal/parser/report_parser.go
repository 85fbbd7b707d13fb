package parser

import (
	"regexp"
	"strconv"
	"strings"

	"dailyledger/internal/model"
)

var (
	headerPattern = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日销售日报$`)
	numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Parse 解析一段销售日报文本
//
// 第一行非空内容必须是“X月Y日销售日报”；其余行按标签表匹配，
// 标签后无数字表示未填报，未知行忽略。纯函数，无 I/O。
func Parse(text string) (ParsedReport, error) {
	lines := splitLines(trimBOM(text))

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return ParsedReport{}, dateError(0, "", "输入文本为空")
	}

	date, perr := parseHeader(headerIdx+1, lines[headerIdx])
	if perr != nil {
		return ParsedReport{}, perr
	}

	values := make(map[model.Field]model.Amount, model.FieldCount)
	var declared model.DeclaredTotals
	var ignored []string

	for i := headerIdx + 1; i < len(lines); i++ {
		line := NormalizeLine(lines[i])
		if line == "" {
			continue
		}

		target, rest, ok := matchLabel(line)
		if !ok {
			ignored = append(ignored, CompactSpaces(lines[i]))
			continue
		}

		amount, perr := parseValue(i+1, target.label, rest)
		if perr != nil {
			return ParsedReport{}, perr
		}

		if target.declared {
			setDeclared(&declared, target.total, amount)
			continue
		}
		values[target.field] = amount
	}

	return ParsedReport{
		Record:   model.NewDailyRecord(date, values),
		Declared: declared,
		Ignored:  ignored,
	}, nil
}

func parseHeader(lineNo int, line string) (model.Date, *ParseError) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(line, "　", " "))
	m := headerPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return model.Date{}, dateError(lineNo, trimmed, "首行不是日期标题")
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	date, err := model.NewDate(month, day)
	if err != nil {
		return model.Date{}, dateError(lineNo, trimmed, err.Error())
	}
	return date, nil
}

// matchLabel 返回匹配到的标签及其后的剩余内容
func matchLabel(line string) (labelTarget, string, bool) {
	for _, target := range matchOrder {
		if !strings.HasPrefix(line, target.label) {
			continue
		}
		rest := strings.TrimPrefix(line, target.label)
		if !startsValue(rest) {
			continue
		}
		return target, rest, true
	}
	return labelTarget{}, "", false
}

func parseValue(lineNo int, label, rest string) (model.Amount, *ParseError) {
	value := strings.TrimLeftFunc(rest, isSeparator)
	value = strings.TrimSpace(value)
	if value == "" {
		return model.Absent(), nil
	}
	if !numberPattern.MatchString(value) {
		return model.Absent(), numberError(lineNo, label, value)
	}
	amount, err := model.ParseAmount(value)
	if err != nil {
		return model.Absent(), numberError(lineNo, label, value)
	}
	return amount, nil
}

func setDeclared(d *model.DeclaredTotals, total model.Total, amount model.Amount) {
	switch total {
	case model.TotalVenue:
		d.Venue = amount
	case model.TotalStore:
		d.Store = amount
	case model.TotalGrand:
		d.Grand = amount
	}
}
