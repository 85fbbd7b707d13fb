package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig     `toml:"server"`
	Data       DataConfig       `toml:"data"`
	Workbook   WorkbookConfig   `toml:"workbook"`
	Validation ValidationConfig `toml:"validation"`
	Watch      WatchConfig      `toml:"watch"`
	Log        LogConfig        `toml:"log"`

	// baseDir 相对路径的基准目录（配置文件所在目录）
	baseDir string
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	JournalFile string `toml:"journal_file"`
}

// WorkbookConfig 账本工作簿配置
type WorkbookConfig struct {
	Path              string `toml:"path"`
	Sheet             string `toml:"sheet"`
	FirstDataRow      int    `toml:"first_data_row"`
	StyleReferenceRow int    `toml:"style_reference_row"`
	// OnDuplicate 命令行与接口未指定时的默认处理方式
	OnDuplicate string `toml:"on_duplicate"`
}

// ValidationConfig 校验配置
type ValidationConfig struct {
	RejectFutureDates   bool    `toml:"reject_future_dates"`
	LargeValueThreshold float64 `toml:"large_value_threshold"`
	Tolerance           float64 `toml:"tolerance"`
}

// WatchConfig 收件目录配置（相对数据目录）
type WatchConfig struct {
	InboxDir     string `toml:"inbox_dir"`
	ProcessedDir string `toml:"processed_dir"`
	FailedDir    string `toml:"failed_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text / json
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:     "data",
			JournalFile: "dailyledger.db",
		},
		Workbook: WorkbookConfig{
			Path:         "财务跟踪表.xlsx",
			Sheet:        workbook.DefaultSheet,
			FirstDataRow: workbook.DefaultFirstDataRow,
			OnDuplicate:  "abort",
		},
		Validation: ValidationConfig{
			RejectFutureDates:   true,
			LargeValueThreshold: 1000000,
			Tolerance:           1e-6,
		},
		Watch: WatchConfig{
			InboxDir:     "inbox",
			ProcessedDir: "processed",
			FailedDir:    "failed",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverAny, ok := raw["server"]
	if !ok {
		return false
	}
	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 加载配置并返回元信息；path 为空时使用 DefaultConfigPath
//
// 配置文件不存在时使用默认配置。环境变量优先于文件。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()
	config.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

func applyEnv(config *AppConfig) {
	if v := os.Getenv("DAILYLEDGER_WORKBOOK"); v != "" {
		config.Workbook.Path = v
	}
	if v := os.Getenv("DAILYLEDGER_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("DAILYLEDGER_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	if c.Workbook.Path == "" {
		return fmt.Errorf("workbook.path 不能为空")
	}
	if c.Workbook.FirstDataRow < 1 {
		return fmt.Errorf("workbook.first_data_row 必须大于 0")
	}
	if _, err := workbook.ParseDuplicatePolicy(c.Workbook.OnDuplicate); err != nil {
		return fmt.Errorf("workbook.on_duplicate: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format 只能是 text 或 json: %q", c.Log.Format)
	}
	if c.Validation.Tolerance < 0 {
		return fmt.Errorf("validation.tolerance 不能为负数")
	}
	return nil
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BaseDir 相对路径的基准目录
func (c *AppConfig) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// Resolve 把相对路径解析到基准目录下
func (c *AppConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// WorkbookPath 账本工作簿的绝对路径
func (c *AppConfig) WorkbookPath() string {
	return c.Resolve(c.Workbook.Path)
}

// DataDir 数据目录
func (c *AppConfig) DataDir() string {
	return c.Resolve(c.Data.DataDir)
}

// JournalPath 导入日志数据库路径
func (c *AppConfig) JournalPath() string {
	if filepath.IsAbs(c.Data.JournalFile) {
		return c.Data.JournalFile
	}
	return filepath.Join(c.DataDir(), c.Data.JournalFile)
}

// WatchDirs 收件、已处理、失败目录
func (c *AppConfig) WatchDirs() (inbox, processed, failed string) {
	at := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.DataDir(), p)
	}
	return at(c.Watch.InboxDir), at(c.Watch.ProcessedDir), at(c.Watch.FailedDir)
}

// DuplicatePolicy 默认的重复日期处理方式
func (c *AppConfig) DuplicatePolicy() workbook.DuplicatePolicy {
	p, err := workbook.ParseDuplicatePolicy(c.Workbook.OnDuplicate)
	if err != nil {
		return workbook.DuplicateAbort
	}
	return p
}

// ValidatorPolicy 校验策略
func (c *AppConfig) ValidatorPolicy() validator.Policy {
	return validator.Policy{
		RejectFutureDates:   c.Validation.RejectFutureDates,
		LargeValueThreshold: decimal.NewFromFloat(c.Validation.LargeValueThreshold),
		Tolerance:           c.Validation.Tolerance,
	}
}

// EnsureDataDir 确保数据目录及收件子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	inbox, processed, failed := config.WatchDirs()
	for _, dir := range []string{inbox, processed, failed} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}

// SetupLogging 按配置设置 logrus
func SetupLogging(c LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
