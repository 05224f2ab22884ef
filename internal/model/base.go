package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ── JSONB 自定义类型 ──

// scanJSON 将 PostgreSQL 返回的 JSONB 文本解码到 dst。
func scanJSON(src interface{}, dst interface{}, typeName string) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%s.Scan: unsupported type %T", typeName, src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s.Scan: %w", typeName, err)
	}
	return nil
}

// StringList 对应 JSONB 字符串数组（如预期成果、任务标签），保持顺序。
type StringList []string

// Scan 实现 sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var out []string
	if err := scanJSON(src, &out, "StringList"); err != nil {
		return err
	}
	*l = out
	return nil
}

// Value 实现 driver.Valuer，nil 序列化为空数组
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TimelinePhase 时间线中的一个阶段
type TimelinePhase struct {
	Phase string `json:"phase"`
	Date  string `json:"date"`
}

// Timeline 对应 JSONB [{phase,date}] 有序列表
type Timeline []TimelinePhase

// Scan 实现 sql.Scanner
func (t *Timeline) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	var out []TimelinePhase
	if err := scanJSON(src, &out, "Timeline"); err != nil {
		return err
	}
	*t = out
	return nil
}

// Value 实现 driver.Valuer
func (t Timeline) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]TimelinePhase(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONMap 对应任意 JSONB 对象（通知元数据、活动日志新旧值）
type JSONMap map[string]interface{}

// Scan 实现 sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	out := map[string]interface{}{}
	if err := scanJSON(src, &out, "JSONMap"); err != nil {
		return err
	}
	*m = out
	return nil
}

// Value 实现 driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
