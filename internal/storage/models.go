package storage

import "time"

// InventoryItem 是库存表的持久化形态。
type InventoryItem struct {
	// Name 为规范化后的物品名（小写、去空白），作为主键。
	Name string `gorm:"primaryKey;size:255"`
	// Status 只会是 LOW / MEDIUM / HIGH。
	Status string `gorm:"size:16;not null;index"`
	// UpdatedAt 为最后一次写入时间。
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// AuditRecord 记录一次动作请求的处理过程及结果。
//
// 每个 ActionRequest 对应一条记录：被分发执行的请求从 running 变为 success/failed，
// 在分发前就被拒绝的请求（能力越界、参数不合法）直接以 rejected 写入。
type AuditRecord struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// TraceID 串联同一轮对话中的全部动作。
	TraceID string `gorm:"size:64;index"`
	// CallID 为本轮内唯一的请求 ID。
	CallID string `gorm:"size:64;index"`
	// Action 为动作名，例如 update_item。
	Action string `gorm:"size:128;not null;index"`
	// ParamsJSON 存放动作入参（JSON 字符串）。
	ParamsJSON string `gorm:"type:text"`
	// ResultJSON 存放动作输出文本。
	ResultJSON string `gorm:"type:text"`
	// Status 为 running/success/failed/rejected。
	Status string `gorm:"size:32;not null;index"`
	// ErrorKind 为错误种类名（FileNotFound 等），成功时为空。
	ErrorKind    string `gorm:"size:64;index"`
	ErrorMessage string `gorm:"type:text"`
	StartedAt    time.Time `gorm:"index"`
	FinishedAt   time.Time `gorm:"index"`
	// CreatedAt 为记录写入数据库的时间，保留策略按它清理。
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"`
}

const (
	AuditStatusRunning  = "running"
	AuditStatusSuccess  = "success"
	AuditStatusFailed   = "failed"
	AuditStatusRejected = "rejected"
)
