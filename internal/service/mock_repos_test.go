package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"proyecto-fct/backend/internal/kanban"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/storage"
)

// ── 测试用内存仓库 ──
//
// GetByID 一律返回副本，模拟每次从数据库重新加载。

type mocks struct {
	users         *mockUserRepo
	anteprojects  *mockAnteprojectRepo
	criteria      *mockCriteriaRepo
	evaluations   *mockEvaluationRepo
	projects      *mockProjectRepo
	milestones    *mockMilestoneRepo
	tasks         *mockTaskRepo
	comments      *mockCommentRepo
	files         *mockFileRepo
	notifications *mockNotificationRepo
	activity      *mockActivityLogRepo
	settings      *mockSystemSettingRepo
}

func newMockRepository() (*repository.Repository, *mocks) {
	m := &mocks{
		users:         newMockUserRepo(),
		anteprojects:  newMockAnteprojectRepo(),
		criteria:      newMockCriteriaRepo(),
		projects:      newMockProjectRepo(),
		milestones:    newMockMilestoneRepo(),
		tasks:         newMockTaskRepo(),
		comments:      newMockCommentRepo(),
		files:         newMockFileRepo(),
		notifications: newMockNotificationRepo(),
		activity:      &mockActivityLogRepo{},
		settings:      newMockSystemSettingRepo(),
	}
	m.evaluations = newMockEvaluationRepo(m.criteria)
	repo := &repository.Repository{
		User:          m.users,
		Anteproject:   m.anteprojects,
		Criteria:      m.criteria,
		Evaluation:    m.evaluations,
		Project:       m.projects,
		Milestone:     m.milestones,
		Task:          m.tasks,
		Comment:       m.comments,
		File:          m.files,
		Notification:  m.notifications,
		ActivityLog:   m.activity,
		SystemSetting: m.settings,
	}
	return repo, m
}

var idSeq int

func nextID(prefix string) string {
	idSeq++
	return fmt.Sprintf("%s-%04d", prefix, idSeq)
}

func copyUsers(users []model.User) []model.User {
	if users == nil {
		return nil
	}
	return append([]model.User(nil), users...)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if u.UserID == "" {
		u.UserID = nextID("user")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByNRE(_ context.Context, nre string) (*model.User, error) {
	for _, u := range m.users {
		if u.NRE != nil && *u.NRE == nre {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *model.User) error {
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Keyword != "" && !strings.Contains(strings.ToLower(u.FullName+" "+u.Email), strings.ToLower(f.Keyword)) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock AnteprojectRepository ──

type mockAnteprojectRepo struct {
	items     map[string]*model.Anteproject
	updateErr error
}

func newMockAnteprojectRepo() *mockAnteprojectRepo {
	return &mockAnteprojectRepo{items: make(map[string]*model.Anteproject)}
}

func cloneAnteproject(a *model.Anteproject) *model.Anteproject {
	cp := *a
	cp.Students = copyUsers(a.Students)
	if a.Tutor != nil {
		t := *a.Tutor
		cp.Tutor = &t
	}
	return &cp
}

func (m *mockAnteprojectRepo) Create(_ context.Context, a *model.Anteproject) error {
	if a.AnteprojectID == "" {
		a.AnteprojectID = nextID("ante")
	}
	a.Version = 1
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.items[a.AnteprojectID] = cloneAnteproject(a)
	return nil
}

func (m *mockAnteprojectRepo) GetByID(_ context.Context, id string) (*model.Anteproject, error) {
	if a, ok := m.items[id]; ok {
		return cloneAnteproject(a), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnteprojectRepo) List(_ context.Context, f repository.AnteprojectFilter) ([]model.Anteproject, error) {
	var out []model.Anteproject
	for _, a := range m.items {
		if f.TutorID != "" && a.TutorID != f.TutorID {
			continue
		}
		if f.StudentID != "" && !containsUserID(a.Students, f.StudentID) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *cloneAnteproject(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnteprojectID < out[j].AnteprojectID })
	return out, nil
}

func (m *mockAnteprojectRepo) Update(_ context.Context, a *model.Anteproject) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.items[a.AnteprojectID]
	if !ok || stored.Version != a.Version {
		return pkgerrors.ErrOptimisticLock
	}
	a.Version++
	students := stored.Students
	cp := cloneAnteproject(a)
	cp.Students = students
	m.items[a.AnteprojectID] = cp
	return nil
}

func (m *mockAnteprojectRepo) ReplaceStudents(_ context.Context, a *model.Anteproject, students []model.User) error {
	if stored, ok := m.items[a.AnteprojectID]; ok {
		stored.Students = copyUsers(students)
	}
	a.Students = students
	return nil
}

func (m *mockAnteprojectRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// ── Mock Criteria / Evaluation ──

type mockCriteriaRepo struct {
	items map[string]*model.AnteprojectEvaluationCriteria
}

func newMockCriteriaRepo() *mockCriteriaRepo {
	return &mockCriteriaRepo{items: make(map[string]*model.AnteprojectEvaluationCriteria)}
}

func (m *mockCriteriaRepo) ListActive(_ context.Context) ([]model.AnteprojectEvaluationCriteria, error) {
	var out []model.AnteprojectEvaluationCriteria
	for _, c := range m.items {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *mockCriteriaRepo) GetByIDs(_ context.Context, ids []string) ([]model.AnteprojectEvaluationCriteria, error) {
	var out []model.AnteprojectEvaluationCriteria
	for _, id := range ids {
		if c, ok := m.items[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCriteriaRepo) UpsertByName(_ context.Context, c *model.AnteprojectEvaluationCriteria) error {
	for _, existing := range m.items {
		if existing.Name == c.Name {
			c.CriteriaID = existing.CriteriaID
			*existing = *c
			return nil
		}
	}
	if c.CriteriaID == "" {
		c.CriteriaID = nextID("crit")
	}
	cp := *c
	m.items[c.CriteriaID] = &cp
	return nil
}

type mockEvaluationRepo struct {
	criteria *mockCriteriaRepo
	rows     map[string]*model.AnteprojectEvaluation // anteprojectID|criteriaID
}

func newMockEvaluationRepo(criteria *mockCriteriaRepo) *mockEvaluationRepo {
	return &mockEvaluationRepo{criteria: criteria, rows: make(map[string]*model.AnteprojectEvaluation)}
}

func (m *mockEvaluationRepo) Upsert(_ context.Context, items []model.AnteprojectEvaluation) error {
	for _, it := range items {
		key := it.AnteprojectID + "|" + it.CriteriaID
		if existing, ok := m.rows[key]; ok {
			existing.Score = it.Score
			existing.Comments = it.Comments
			existing.EvaluatedByID = it.EvaluatedByID
			existing.EvaluatedAt = it.EvaluatedAt
			continue
		}
		cp := it
		cp.EvaluationID = nextID("eval")
		m.rows[key] = &cp
	}
	return nil
}

func (m *mockEvaluationRepo) ListByAnteproject(_ context.Context, anteprojectID string) ([]model.AnteprojectEvaluation, error) {
	var out []model.AnteprojectEvaluation
	for _, r := range m.rows {
		if r.AnteprojectID != anteprojectID {
			continue
		}
		cp := *r
		if c, ok := m.criteria.items[r.CriteriaID]; ok {
			cc := *c
			cp.Criteria = &cc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Criteria.DisplayOrder < out[j].Criteria.DisplayOrder
	})
	return out, nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	items   map[string]*model.Project
	locks   int
	touched int
	lockErr error
	onLock  func() // 模拟加锁前已提交的并发修改
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{items: make(map[string]*model.Project)}
}

func cloneProject(p *model.Project) *model.Project {
	cp := *p
	cp.Students = copyUsers(p.Students)
	if p.Tutor != nil {
		t := *p.Tutor
		cp.Tutor = &t
	}
	return &cp
}

func (m *mockProjectRepo) Create(_ context.Context, p *model.Project) error {
	if p.ProjectID == "" {
		p.ProjectID = nextID("proj")
	}
	m.items[p.ProjectID] = cloneProject(p)
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.items[id]; ok {
		return cloneProject(p), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) LockForUpdate(_ context.Context, id string) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	if m.onLock != nil {
		m.onLock()
	}
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.locks++
	return nil
}

func (m *mockProjectRepo) List(_ context.Context, f repository.ProjectFilter) ([]model.Project, error) {
	var out []model.Project
	for _, p := range m.items {
		if f.TutorID != "" && p.TutorID != f.TutorID {
			continue
		}
		if f.StudentID != "" && !containsUserID(p.Students, f.StudentID) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, *cloneProject(p))
	}
	return out, nil
}

func (m *mockProjectRepo) Update(_ context.Context, p *model.Project) error {
	students := m.items[p.ProjectID].Students
	cp := cloneProject(p)
	cp.Students = students
	m.items[p.ProjectID] = cp
	return nil
}

func (m *mockProjectRepo) ReplaceStudents(_ context.Context, p *model.Project, students []model.User) error {
	m.items[p.ProjectID].Students = copyUsers(students)
	p.Students = students
	return nil
}

func (m *mockProjectRepo) AddStudent(_ context.Context, p *model.Project, student *model.User) error {
	stored := m.items[p.ProjectID]
	stored.Students = append(stored.Students, *student)
	return nil
}

func (m *mockProjectRepo) RemoveStudent(_ context.Context, p *model.Project, student *model.User) error {
	stored := m.items[p.ProjectID]
	for i := range stored.Students {
		if stored.Students[i].UserID == student.UserID {
			stored.Students = append(stored.Students[:i], stored.Students[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockProjectRepo) Touch(_ context.Context, id string, at time.Time) error {
	if p, ok := m.items[id]; ok {
		p.LastActivityAt = &at
	}
	m.touched++
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// ── Mock MilestoneRepository ──

type mockMilestoneRepo struct {
	items map[string]*model.Milestone
}

func newMockMilestoneRepo() *mockMilestoneRepo {
	return &mockMilestoneRepo{items: make(map[string]*model.Milestone)}
}

func (m *mockMilestoneRepo) Create(_ context.Context, ms *model.Milestone) error {
	for _, existing := range m.items {
		if existing.ProjectID == ms.ProjectID && existing.MilestoneNumber == ms.MilestoneNumber {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if ms.MilestoneID == "" {
		ms.MilestoneID = nextID("ms")
	}
	cp := *ms
	m.items[ms.MilestoneID] = &cp
	return nil
}

func (m *mockMilestoneRepo) GetByID(_ context.Context, id string) (*model.Milestone, error) {
	if ms, ok := m.items[id]; ok {
		cp := *ms
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMilestoneRepo) ListByProject(_ context.Context, projectID string) ([]model.Milestone, error) {
	var out []model.Milestone
	for _, ms := range m.items {
		if ms.ProjectID == projectID {
			out = append(out, *ms)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MilestoneNumber < out[j].MilestoneNumber })
	return out, nil
}

func (m *mockMilestoneRepo) MaxNumber(_ context.Context, projectID string) (int, error) {
	max := 0
	for _, ms := range m.items {
		if ms.ProjectID == projectID && ms.MilestoneNumber > max {
			max = ms.MilestoneNumber
		}
	}
	return max, nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct {
	items    map[string]*model.Task
	writes   int   // 所有写操作计数
	shiftErr error // 非 nil 时 ShiftPositions 返回该错误

	beforeUpdate func() // 模拟读取与写入之间提交的并发修改
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{items: make(map[string]*model.Task)}
}

func cloneTask(t *model.Task) *model.Task {
	cp := *t
	cp.Assignees = copyUsers(t.Assignees)
	return &cp
}

func (m *mockTaskRepo) Create(_ context.Context, t *model.Task) error {
	if t.TaskID == "" {
		t.TaskID = nextID("task")
	}
	m.writes++
	m.items[t.TaskID] = cloneTask(t)
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	if t, ok := m.items[id]; ok {
		return cloneTask(t), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) ListByProject(_ context.Context, projectID string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range m.items {
		if t.ProjectID == projectID {
			out = append(out, *cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].KanbanPosition < out[j].KanbanPosition
	})
	return out, nil
}

func (m *mockTaskRepo) CountByStatus(_ context.Context, projectID, status, excludeID string) (int, error) {
	n := 0
	for _, t := range m.items {
		if t.ProjectID == projectID && t.Status == status && t.TaskID != excludeID {
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepo) ShiftPositions(_ context.Context, projectID string, sh kanban.Shift, excludeID string) error {
	if m.shiftErr != nil {
		return m.shiftErr
	}
	m.writes++
	for _, t := range m.items {
		if t.ProjectID != projectID || t.Status != sh.Status || t.TaskID == excludeID {
			continue
		}
		if sh.Contains(t.KanbanPosition) {
			t.KanbanPosition += sh.Delta
		}
	}
	return nil
}

func (m *mockTaskRepo) UpdatePosition(_ context.Context, id, status string, position int, completedAt *time.Time) error {
	m.writes++
	t, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	t.KanbanPosition = position
	t.CompletedAt = completedAt
	return nil
}

// Update 与真实实现一致：不覆盖状态、看板位置与完成时间
func (m *mockTaskRepo) Update(_ context.Context, t *model.Task) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.writes++
	stored := m.items[t.TaskID]
	cp := cloneTask(t)
	cp.Assignees = stored.Assignees
	cp.Status = stored.Status
	cp.KanbanPosition = stored.KanbanPosition
	cp.CompletedAt = stored.CompletedAt
	m.items[t.TaskID] = cp
	return nil
}

func (m *mockTaskRepo) ReplaceAssignees(_ context.Context, t *model.Task, users []model.User) error {
	m.writes++
	m.items[t.TaskID].Assignees = copyUsers(users)
	t.Assignees = users
	return nil
}

func (m *mockTaskRepo) AddAssignee(_ context.Context, t *model.Task, u *model.User) error {
	m.writes++
	stored := m.items[t.TaskID]
	stored.Assignees = append(stored.Assignees, *u)
	return nil
}

func (m *mockTaskRepo) RemoveAssignee(_ context.Context, t *model.Task, u *model.User) error {
	m.writes++
	stored := m.items[t.TaskID]
	for i := range stored.Assignees {
		if stored.Assignees[i].UserID == u.UserID {
			stored.Assignees = append(stored.Assignees[:i], stored.Assignees[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	m.writes++
	delete(m.items, id)
	return nil
}

// column 返回某列任务 ID，按位置排序
func (m *mockTaskRepo) column(projectID, status string) []*model.Task {
	var out []*model.Task
	for _, t := range m.items {
		if t.ProjectID == projectID && t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KanbanPosition < out[j].KanbanPosition })
	return out
}

// ── Mock CommentRepository ──

type mockCommentRepo struct {
	items map[string]*model.Comment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{items: make(map[string]*model.Comment)}
}

func (m *mockCommentRepo) Create(_ context.Context, c *model.Comment) error {
	if c.CommentID == "" {
		c.CommentID = nextID("cmt")
	}
	cp := *c
	m.items[c.CommentID] = &cp
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommentRepo) ListByTask(_ context.Context, taskID string) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range m.items {
		if c.TaskID == taskID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCommentRepo) Update(_ context.Context, c *model.Comment) error {
	cp := *c
	m.items[c.CommentID] = &cp
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// ── Mock FileRepository ──

type mockFileRepo struct {
	items     map[string]*model.File
	createErr error
}

func newMockFileRepo() *mockFileRepo {
	return &mockFileRepo{items: make(map[string]*model.File)}
}

func (m *mockFileRepo) Create(_ context.Context, f *model.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	if f.FileID == "" {
		f.FileID = nextID("file")
	}
	cp := *f
	m.items[f.FileID] = &cp
	return nil
}

func (m *mockFileRepo) GetByID(_ context.Context, id string) (*model.File, error) {
	if f, ok := m.items[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFileRepo) ListByAttachable(_ context.Context, attachableType, attachableID string) ([]model.File, error) {
	var out []model.File
	for _, f := range m.items {
		if f.AttachableType == attachableType && f.AttachableID == attachableID {
			out = append(out, *f)
		}
	}
	return out, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = nextID("ntf")
	}
	n.CreatedAt = time.Now()
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Notification{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string, at time.Time) (bool, error) {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			n.ReadAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	entries []model.ActivityLog
}

func (m *mockActivityLogRepo) Create(_ context.Context, l *model.ActivityLog) error {
	m.entries = append(m.entries, *l)
	return nil
}

func (m *mockActivityLogRepo) ListByEntity(_ context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var out []model.ActivityLog
	for _, e := range m.entries {
		if (entityType == "" || e.EntityType == entityType) && (entityID == "" || e.EntityID == entityID) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockActivityLogRepo) actions() []string {
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// ── Mock SystemSettingRepository ──

type mockSystemSettingRepo struct {
	items map[string]*model.SystemSetting
}

func newMockSystemSettingRepo() *mockSystemSettingRepo {
	return &mockSystemSettingRepo{items: make(map[string]*model.SystemSetting)}
}

func (m *mockSystemSettingRepo) List(_ context.Context) ([]model.SystemSetting, error) {
	var out []model.SystemSetting
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettingKey < out[j].SettingKey })
	return out, nil
}

func (m *mockSystemSettingRepo) GetByKey(_ context.Context, key string) (*model.SystemSetting, error) {
	if s, ok := m.items[key]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSystemSettingRepo) Update(_ context.Context, s *model.SystemSetting) error {
	cp := *s
	m.items[s.SettingKey] = &cp
	return nil
}

func (m *mockSystemSettingRepo) Upsert(_ context.Context, s *model.SystemSetting) error {
	if existing, ok := m.items[s.SettingKey]; ok {
		existing.SettingType = s.SettingType
		existing.Description = s.Description
		existing.IsEditable = s.IsEditable
		return nil
	}
	cp := *s
	m.items[s.SettingKey] = &cp
	return nil
}

// ── 外部协作者 Mock ──

type publishedEvent struct {
	routingKey string
	payload    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.tokens[jti] = ttl
	return nil
}

func (b *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.tokens[jti]
	return ok, nil
}

type mockFileStore struct {
	files   map[string][]byte
	removed []string
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (s *mockFileStore) Save(original string, r io.Reader, maxBytes int64) (string, string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", 0, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", "", 0, storage.ErrFileTooLarge
	}
	name := nextID("blob") + "-" + original
	s.files[name] = data
	return name, name, int64(len(data)), nil
}

func (s *mockFileStore) Open(path string) (io.ReadCloser, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *mockFileStore) Remove(path string) error {
	delete(s.files, path)
	s.removed = append(s.removed, path)
	return nil
}
