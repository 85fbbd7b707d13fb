package store

import "fmt"

// MonthStat 按日报月份统计的导入次数
type MonthStat struct {
	Month     string `json:"month"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// ListMonthStats 按月份（MM）统计导入结果，月份倒序
func (s *Store) ListMonthStats() ([]MonthStat, error) {
	rows, err := s.db.Query(`
		SELECT
			substr(record_date, 1, 2) AS m,
			SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END) AS ok_count,
			SUM(CASE WHEN outcome != 'success' THEN 1 ELSE 0 END) AS failed_count
		FROM ingestions
		WHERE record_date != ''
		GROUP BY m
		ORDER BY m DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query month stats failed: %w", err)
	}
	defer rows.Close()

	out := []MonthStat{}
	for rows.Next() {
		var it MonthStat
		if err := rows.Scan(&it.Month, &it.Succeeded, &it.Failed); err != nil {
			return nil, fmt.Errorf("scan month stats failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month stats failed: %w", err)
	}
	return out, nil
}
