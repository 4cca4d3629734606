package housekeeping

import "time"

type ErrorHandler func(err error)

type Config struct {
	// Enabled 控制 serve 模式下是否启动后台清理。
	Enabled bool `mapstructure:"enabled"`
	// Interval 为两次清理之间的间隔。
	Interval time.Duration `mapstructure:"interval"`
	// AuditKeep 为审计记录的保留时长，早于 now-AuditKeep 的记录会被分批删除。
	AuditKeep time.Duration `mapstructure:"audit_keep"`
	// BatchRows 为单次删除的最大行数。
	BatchRows int `mapstructure:"batch_rows"`
	// IdleSleep 为两个删除批次之间的停顿，避免长时间占用写锁。
	IdleSleep time.Duration `mapstructure:"idle_sleep"`
	// SessionIdle 为会话的最大空闲时间，超过即被淘汰。
	SessionIdle time.Duration `mapstructure:"session_idle"`

	// OnError 为异步错误回调；默认丢弃。
	OnError ErrorHandler `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Interval:    time.Hour,
		AuditKeep:   30 * 24 * time.Hour,
		BatchRows:   500,
		IdleSleep:   50 * time.Millisecond,
		SessionIdle: 2 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.AuditKeep <= 0 {
		c.AuditKeep = d.AuditKeep
	}
	if c.BatchRows <= 0 {
		c.BatchRows = d.BatchRows
	}
	if c.IdleSleep < 0 {
		c.IdleSleep = 0
	}
	if c.SessionIdle <= 0 {
		c.SessionIdle = d.SessionIdle
	}
	if c.OnError == nil {
		c.OnError = func(error) {}
	}
	return c
}
