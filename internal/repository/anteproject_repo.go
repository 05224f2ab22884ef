package repository

import (
	"context"

	"gorm.io/gorm"

	"proyecto-fct/backend/internal/model"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// AnteprojectFilter 预项目列表过滤条件
// TutorID 与 StudentID 用于可见性过滤，均为空表示不过滤（管理员）
type AnteprojectFilter struct {
	TutorID   string
	StudentID string
	Status    string
}

// AnteprojectRepository 预项目数据访问接口
type AnteprojectRepository interface {
	Create(ctx context.Context, a *model.Anteproject) error
	GetByID(ctx context.Context, id string) (*model.Anteproject, error)
	List(ctx context.Context, filter AnteprojectFilter) ([]model.Anteproject, error)
	// Update 带版本号的条件更新，版本不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, a *model.Anteproject) error
	ReplaceStudents(ctx context.Context, a *model.Anteproject, students []model.User) error
	Delete(ctx context.Context, id string) error
}

type anteprojectRepo struct {
	db *gorm.DB
}

// NewAnteprojectRepo 创建 AnteprojectRepository 实例
func NewAnteprojectRepo(db *gorm.DB) AnteprojectRepository {
	return &anteprojectRepo{db: db}
}

func (r *anteprojectRepo) Create(ctx context.Context, a *model.Anteproject) error {
	// 学生关联通过 many2many 自动写入 anteproject_students，用户本身不做 upsert
	return r.db.WithContext(ctx).
		Omit("Tutor", "Students.*").
		Create(a).Error
}

func (r *anteprojectRepo) GetByID(ctx context.Context, id string) (*model.Anteproject, error) {
	var a model.Anteproject
	err := r.db.WithContext(ctx).
		Preload("Tutor").
		Preload("Students").
		Where("anteproject_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *anteprojectRepo) List(ctx context.Context, filter AnteprojectFilter) ([]model.Anteproject, error) {
	var list []model.Anteproject

	db := r.db.WithContext(ctx).Model(&model.Anteproject{})
	if filter.TutorID != "" {
		db = db.Where("tutor_id = ?", filter.TutorID)
	}
	if filter.StudentID != "" {
		db = db.Where("anteproject_id IN (?)",
			r.db.Table("anteproject_students").Select("anteproject_id").Where("user_id = ?", filter.StudentID))
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Preload("Tutor").
		Preload("Students").
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *anteprojectRepo) Update(ctx context.Context, a *model.Anteproject) error {
	oldVersion := a.Version
	result := r.db.WithContext(ctx).
		Model(&model.Anteproject{}).
		Where("anteproject_id = ? AND version = ?", a.AnteprojectID, oldVersion).
		Updates(map[string]interface{}{
			"title":            a.Title,
			"project_type":     a.ProjectType,
			"description":      a.Description,
			"academic_year":    a.AcademicYear,
			"institution":      a.Institution,
			"modality":         a.Modality,
			"location":         a.Location,
			"expected_results": a.ExpectedResults,
			"timeline":         a.Timeline,
			"status":           a.Status,
			"tutor_id":         a.TutorID,
			"submitted_at":     a.SubmittedAt,
			"reviewed_at":      a.ReviewedAt,
			"evaluation_date":  a.EvaluationDate,
			"defense_date":     a.DefenseDate,
			"defense_location": a.DefenseLocation,
			"tutor_comments":   a.TutorComments,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	a.Version = oldVersion + 1
	return nil
}

func (r *anteprojectRepo) ReplaceStudents(ctx context.Context, a *model.Anteproject, students []model.User) error {
	if err := r.db.WithContext(ctx).
		Model(a).
		Omit("Students.*").
		Association("Students").
		Replace(students); err != nil {
		return err
	}
	a.Students = students
	return nil
}

func (r *anteprojectRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("anteproject_id = ?", id).
		Delete(&model.Anteproject{}).Error
}
