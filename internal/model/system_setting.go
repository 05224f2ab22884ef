package model

// 系统设置值类型
const (
	SettingTypeString  = "string"
	SettingTypeInteger = "integer"
	SettingTypeBoolean = "boolean"
	SettingTypeJSON    = "json"
)

// 已知的系统设置键
const (
	SettingAllowedFileTypes = "allowed_file_types"
	SettingMaxFileSizeMB    = "max_file_size_mb"
	SettingMaintenanceMode  = "maintenance_mode"
)

// SystemSetting 系统设置表 — 对应 system_settings（键值对，值按 setting_type 解释）
type SystemSetting struct {
	SettingKey   string  `gorm:"type:varchar(100);primaryKey"                json:"setting_key"`
	SettingValue string  `gorm:"type:text;not null"                          json:"setting_value"`
	SettingType  string  `gorm:"type:varchar(20);not null;default:'string'"  json:"setting_type"`
	Description  *string `gorm:"type:text"                                   json:"description,omitempty"`
	IsEditable   bool    `gorm:"not null;default:true"                       json:"is_editable"`
	UpdatedByID  *string `gorm:"type:uuid"                                   json:"updated_by_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (SystemSetting) TableName() string { return "system_settings" }
