package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proyecto-fct/backend/internal/model"
)

// ProjectFilter 项目列表可见性过滤
type ProjectFilter struct {
	TutorID   string
	StudentID string
	Status    string
}

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// LockForUpdate 对项目行加行锁，串行化同一项目下的看板写操作，必须在事务中调用
	LockForUpdate(ctx context.Context, id string) error
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	ReplaceStudents(ctx context.Context, p *model.Project, students []model.User) error
	AddStudent(ctx context.Context, p *model.Project, student *model.User) error
	RemoveStudent(ctx context.Context, p *model.Project, student *model.User) error
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).
		Omit("Tutor", "Students.*").
		Create(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).
		Preload("Tutor").
		Preload("Students").
		Where("project_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) LockForUpdate(ctx context.Context, id string) error {
	var p model.Project
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("project_id").
		Where("project_id = ?", id).
		First(&p).Error
}

func (r *projectRepo) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	var list []model.Project

	db := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.TutorID != "" {
		db = db.Where("tutor_id = ?", filter.TutorID)
	}
	if filter.StudentID != "" {
		db = db.Where("project_id IN (?)",
			r.db.Table("project_students").Select("project_id").Where("user_id = ?", filter.StudentID))
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

func (r *projectRepo) Update(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).
		Omit("Tutor", "Students").
		Save(p).Error
}

func (r *projectRepo) ReplaceStudents(ctx context.Context, p *model.Project, students []model.User) error {
	if err := r.db.WithContext(ctx).Model(p).Omit("Students.*").Association("Students").Replace(students); err != nil {
		return err
	}
	p.Students = students
	return nil
}

func (r *projectRepo) AddStudent(ctx context.Context, p *model.Project, student *model.User) error {
	return r.db.WithContext(ctx).Model(p).Omit("Students.*").Association("Students").Append(student)
}

func (r *projectRepo) RemoveStudent(ctx context.Context, p *model.Project, student *model.User) error {
	return r.db.WithContext(ctx).Model(p).Association("Students").Delete(student)
}

func (r *projectRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", id).Delete(&model.Project{}).Error
}

// ── Milestone ──

// MilestoneRepository 里程碑数据访问接口
type MilestoneRepository interface {
	Create(ctx context.Context, m *model.Milestone) error
	GetByID(ctx context.Context, id string) (*model.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Milestone, error)
	// MaxNumber 返回项目下最大的里程碑编号，没有里程碑时为 0
	MaxNumber(ctx context.Context, projectID string) (int, error)
}

type milestoneRepo struct {
	db *gorm.DB
}

// NewMilestoneRepo 创建 MilestoneRepository 实例
func NewMilestoneRepo(db *gorm.DB) MilestoneRepository {
	return &milestoneRepo{db: db}
}

func (r *milestoneRepo) Create(ctx context.Context, m *model.Milestone) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *milestoneRepo) GetByID(ctx context.Context, id string) (*model.Milestone, error) {
	var m model.Milestone
	if err := r.db.WithContext(ctx).Where("milestone_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *milestoneRepo) ListByProject(ctx context.Context, projectID string) ([]model.Milestone, error) {
	var list []model.Milestone
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("milestone_number ASC").
		Find(&list).Error
	return list, err
}

func (r *milestoneRepo) MaxNumber(ctx context.Context, projectID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(milestone_number), 0)").
		Scan(&max).Error
	return max, err
}
