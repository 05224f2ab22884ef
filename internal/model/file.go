package model

// 附件所属实体类型
const (
	AttachableTask        = "task"
	AttachableComment     = "comment"
	AttachableAnteproject = "anteproject"
)

// File 附件表 — 对应 files（多态归属）
type File struct {
	FileID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Filename         string `gorm:"type:varchar(255);not null"                     json:"filename"`
	OriginalFilename string `gorm:"type:varchar(255);not null"                     json:"original_filename"`
	FilePath         string `gorm:"type:varchar(500);not null"                     json:"-"`
	FileSize         int64  `gorm:"not null"                                       json:"file_size"`
	MimeType         string `gorm:"type:varchar(100);not null"                     json:"mime_type"`
	UploadedByID     string `gorm:"type:uuid;not null"                             json:"uploaded_by_id"`
	AttachableType   string `gorm:"type:varchar(20);not null;index:idx_files_attachable,priority:1" json:"attachable_type"`
	AttachableID     string `gorm:"type:uuid;not null;index:idx_files_attachable,priority:2"        json:"attachable_id"`
	BaseModel
}

// TableName 指定表名
func (File) TableName() string { return "files" }
