package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const (
	keyLastDate = "last_success_date"
	keyLastRow  = "last_success_row"
)

// GetConfig 获取设置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("config key %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数设置项
func (s *Store) GetConfigInt(key string) (int, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetConfig 设置设置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// SetConfigInt 设置整数设置项
func (s *Store) SetConfigInt(key string, value int) error {
	return s.SetConfig(key, strconv.Itoa(value))
}

// RecordLastSuccess 记录最近一次成功写入的日期与行号
func (s *Store) RecordLastSuccess(date string, row int) error {
	if err := s.SetConfig(keyLastDate, date); err != nil {
		return err
	}
	return s.SetConfigInt(keyLastRow, row)
}

// LastSuccess 最近一次成功写入；从未成功时 ok 为 false
func (s *Store) LastSuccess() (date string, row int, ok bool, err error) {
	date, err = s.GetConfig(keyLastDate)
	if errors.Is(err, ErrNotFound) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	row, err = s.GetConfigInt(keyLastRow)
	if err != nil {
		return "", 0, false, err
	}
	return date, row, true, nil
}
