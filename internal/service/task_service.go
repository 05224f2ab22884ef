package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/kanban"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/metrics"
)

// TaskService 任务与看板业务接口
type TaskService interface {
	ListByProject(ctx context.Context, projectID string, actor access.Actor) ([]model.Task, error)
	// GetKanban 按状态分组，每个状态都有对应的键
	GetKanban(ctx context.Context, projectID string, actor access.Actor) (map[string][]model.Task, error)
	GetByID(ctx context.Context, id string, actor access.Actor) (*model.Task, error)
	Create(ctx context.Context, req *dto.CreateTaskRequest, actor access.Actor) (*model.Task, error)
	Update(ctx context.Context, id string, req *dto.UpdateTaskRequest, actor access.Actor) (*model.Task, error)
	Delete(ctx context.Context, id string, actor access.Actor) error
	Move(ctx context.Context, id, status string, position int, actor access.Actor) (*model.Task, error)
	Assign(ctx context.Context, id, userID string, actor access.Actor) (*model.Task, error)
	Unassign(ctx context.Context, id, userID string, actor access.Actor) (*model.Task, error)
}

type taskService struct {
	repo          *repository.Repository
	notifications NotificationService
	activity      ActivityLogService
	logger        *zap.Logger
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(repo *repository.Repository, notifications NotificationService, activity ActivityLogService, logger *zap.Logger) TaskService {
	return &taskService{
		repo:          repo,
		notifications: notifications,
		activity:      activity,
		logger:        logger,
	}
}

// ── 查询 ──

func (s *taskService) ListByProject(ctx context.Context, projectID string, actor access.Actor) ([]model.Task, error) {
	if _, _, err := loadProject(ctx, s.repo, projectID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.Task.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询任务列表失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *taskService) GetKanban(ctx context.Context, projectID string, actor access.Actor) (map[string][]model.Task, error) {
	list, err := s.ListByProject(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}
	return groupByStatus(list), nil
}

// groupByStatus 按状态分组并按看板位置升序
func groupByStatus(list []model.Task) map[string][]model.Task {
	board := make(map[string][]model.Task, len(model.TaskStatuses))
	for _, st := range model.TaskStatuses {
		board[st] = []model.Task{}
	}
	for _, t := range list {
		board[t.Status] = append(board[t.Status], t)
	}
	for _, col := range board {
		sort.SliceStable(col, func(i, j int) bool { return col[i].KanbanPosition < col[j].KanbanPosition })
	}
	return board
}

func (s *taskService) GetByID(ctx context.Context, id string, actor access.Actor) (*model.Task, error) {
	t, _, _, err := loadTask(ctx, s.repo, id, actor)
	return t, err
}

// ── 创建 ──

// Create 管理员或项目导师创建任务，新任务追加到所在列的末尾
func (s *taskService) Create(ctx context.Context, req *dto.CreateTaskRequest, actor access.Actor) (*model.Task, error) {
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	t := &model.Task{
		ProjectID:      req.ProjectID,
		MilestoneID:    req.MilestoneID,
		CreatedByID:    actor.ID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         defaultString(req.Status, model.TaskStatusPending),
		Priority:       defaultString(req.Priority, model.TaskPriorityMedium),
		Complexity:     defaultString(req.Complexity, model.TaskComplexityMedium),
		DueDate:        due,
		EstimatedHours: req.EstimatedHours,
		Tags:           model.StringList(req.Tags),
	}
	if t.Tags == nil {
		t.Tags = model.StringList{}
	}
	if t.Status == model.TaskStatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	}

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		p, flags, err := loadProject(ctx, txRepo, req.ProjectID, actor)
		if err != nil {
			return err
		}
		if !flags.Has(access.CapManage) {
			return pkgerrors.Forbidden("只有管理员或项目导师可以创建任务")
		}
		if err := s.checkMilestone(ctx, txRepo, p.ProjectID, t.MilestoneID); err != nil {
			return err
		}
		assignees, err := projectStudents(p, req.AssigneeIDs)
		if err != nil {
			return err
		}

		if err := txRepo.Project.LockForUpdate(ctx, p.ProjectID); err != nil {
			return err
		}
		n, err := txRepo.Task.CountByStatus(ctx, p.ProjectID, t.Status, "")
		if err != nil {
			return err
		}
		t.KanbanPosition = n

		if err := txRepo.Task.Create(ctx, t); err != nil {
			return err
		}
		if len(assignees) > 0 {
			if err := txRepo.Task.ReplaceAssignees(ctx, t, assignees); err != nil {
				return err
			}
		}
		return txRepo.Project.Touch(ctx, p.ProjectID, time.Now())
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("创建任务失败", zap.String("project_id", req.ProjectID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("任务已创建",
		zap.String("id", t.TaskID),
		zap.String("project_id", t.ProjectID),
		zap.String("status", t.Status),
		zap.Int("position", t.KanbanPosition))
	s.activity.Record(ctx, actor.ID, "task.create", "task", t.TaskID, nil,
		model.JSONMap{"title": t.Title, "status": t.Status})
	s.notifyAssigned(ctx, t, studentIDs(t.Assignees), actor)
	return t, nil
}

// checkMilestone 里程碑必须属于同一项目
func (s *taskService) checkMilestone(ctx context.Context, repo *repository.Repository, projectID string, milestoneID *string) error {
	if milestoneID == nil || *milestoneID == "" {
		return nil
	}
	m, err := repo.Milestone.GetByID(ctx, *milestoneID)
	if err != nil || m.ProjectID != projectID {
		if err != nil && !isNotFound(err) {
			return err
		}
		return pkgerrors.NotFound("里程碑 %s 不存在于该项目", *milestoneID)
	}
	return nil
}

// projectStudents 从项目学生中挑出指定用户，不属于项目的用户返回 NotFound
func projectStudents(p *model.Project, ids []string) ([]model.User, error) {
	ids = uniqueIDs(ids)
	out := make([]model.User, 0, len(ids))
	var missing []string
	for _, id := range ids {
		found := false
		for i := range p.Students {
			if p.Students[i].UserID == id {
				out = append(out, p.Students[i])
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NotFound("以下用户不是该项目的学生: %v", missing)
	}
	return out, nil
}

// ── 更新 ──

func (s *taskService) Update(ctx context.Context, id string, req *dto.UpdateTaskRequest, actor access.Actor) (*model.Task, error) {
	var (
		result   *model.Task
		oldState string
		added    []string
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		t, p, flags, err := loadTask(ctx, txRepo, id, actor)
		if err != nil {
			return err
		}
		switch {
		case flags.Has(access.CapEditTask):
		case req.OnlyStatus() && flags.Has(access.CapEditTaskStatus):
		default:
			return pkgerrors.Forbidden("无权修改该任务")
		}
		statusChanged := req.Status != nil && *req.Status != t.Status
		if statusChanged {
			if err := txRepo.Project.LockForUpdate(ctx, p.ProjectID); err != nil {
				return err
			}
			// 锁定后重新读取，旧列位置以最新行为准
			if t, err = txRepo.Task.GetByID(ctx, id); err != nil {
				return err
			}
			statusChanged = *req.Status != t.Status
		}
		oldState = t.Status

		if req.MilestoneID != nil {
			if err := s.checkMilestone(ctx, txRepo, p.ProjectID, req.MilestoneID); err != nil {
				return err
			}
			t.MilestoneID = req.MilestoneID
			if *req.MilestoneID == "" {
				t.MilestoneID = nil
			}
		}
		if err := applyTaskFields(t, req); err != nil {
			return err
		}

		// 普通字段的写入不含状态与看板位置，两者只经 UpdatePosition 修改
		if statusChanged {
			if err := s.moveToColumnEnd(ctx, txRepo, t, *req.Status); err != nil {
				return err
			}
			if err := txRepo.Task.UpdatePosition(ctx, t.TaskID, t.Status, t.KanbanPosition, t.CompletedAt); err != nil {
				return err
			}
		}

		if err := txRepo.Task.Update(ctx, t); err != nil {
			return err
		}
		if req.AssigneeIDs != nil {
			users, err := projectStudents(p, *req.AssigneeIDs)
			if err != nil {
				return err
			}
			for _, u := range users {
				if !containsUserID(t.Assignees, u.UserID) {
					added = append(added, u.UserID)
				}
			}
			if err := txRepo.Task.ReplaceAssignees(ctx, t, users); err != nil {
				return err
			}
		}
		result = t
		return txRepo.Project.Touch(ctx, p.ProjectID, time.Now())
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("更新任务失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.activity.Record(ctx, actor.ID, "task.update", "task", id,
		model.JSONMap{"status": oldState}, model.JSONMap{"status": result.Status, "title": result.Title})
	s.notifyAssigned(ctx, result, added, actor)
	return result, nil
}

func applyTaskFields(t *model.Task, req *dto.UpdateTaskRequest) error {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Complexity != nil {
		t.Complexity = *req.Complexity
	}
	if req.DueDate != nil {
		due, err := parseDate("due_date", req.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	if req.EstimatedHours != nil {
		t.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		t.ActualHours = req.ActualHours
	}
	if req.Tags != nil {
		t.Tags = model.StringList(*req.Tags)
	}
	return nil
}

// moveToColumnEnd 状态变更时把任务放到新列末尾并关闭旧列的空位
func (s *taskService) moveToColumnEnd(ctx context.Context, repo *repository.Repository, t *model.Task, status string) error {
	n, err := repo.Task.CountByStatus(ctx, t.ProjectID, status, t.TaskID)
	if err != nil {
		return err
	}
	m := kanban.Move{FromStatus: t.Status, FromPos: t.KanbanPosition, ToStatus: status, ToPos: n}
	for _, sh := range kanban.Plan(m) {
		if err := repo.Task.ShiftPositions(ctx, t.ProjectID, sh, t.TaskID); err != nil {
			return err
		}
	}
	t.CompletedAt = completionTime(t.Status, status, t.CompletedAt, time.Now())
	t.Status = status
	t.KanbanPosition = n
	return nil
}

// completionTime 进入 completed 时记录完成时间，离开时清空
func completionTime(from, to string, current *time.Time, now time.Time) *time.Time {
	switch {
	case to == model.TaskStatusCompleted && from != model.TaskStatusCompleted:
		return &now
	case to != model.TaskStatusCompleted:
		return nil
	}
	return current
}

// ── 删除 ──

func (s *taskService) Delete(ctx context.Context, id string, actor access.Actor) error {
	var title string
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		t, p, flags, err := loadTask(ctx, txRepo, id, actor)
		if err != nil {
			return err
		}
		if !flags.Has(access.CapDeleteTask) {
			return pkgerrors.Forbidden("只有任务创建者、项目导师或管理员可以删除任务")
		}
		if err := txRepo.Project.LockForUpdate(ctx, p.ProjectID); err != nil {
			return err
		}
		// 锁定后重新读取位置
		if t, err = txRepo.Task.GetByID(ctx, id); err != nil {
			return err
		}
		title = t.Title

		if err := txRepo.Task.Delete(ctx, id); err != nil {
			return err
		}
		gap := kanban.Shift{Status: t.Status, From: t.KanbanPosition + 1, To: kanban.Unbounded, Delta: -1}
		return txRepo.Task.ShiftPositions(ctx, p.ProjectID, gap, id)
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("删除任务失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("任务已删除", zap.String("id", id), zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "task.delete", "task", id, model.JSONMap{"title": title}, nil)
	return nil
}

// ── 看板移动 ──

// Move 在单个事务内完成区间平移与任务自身的写入
// 项目行锁串行化同一项目下的并发移动，锁定后重新读取任务位置
func (s *taskService) Move(ctx context.Context, id, status string, position int, actor access.Actor) (*model.Task, error) {
	if !validTaskStatus(status) {
		return nil, pkgerrors.Validation("未知的任务状态 %s", status)
	}

	var (
		result *model.Task
		kind   = "failed"
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		t, _, _, err := loadTask(ctx, txRepo, id, actor)
		if err != nil {
			return err
		}
		if err := txRepo.Project.LockForUpdate(ctx, t.ProjectID); err != nil {
			return err
		}
		if t, err = txRepo.Task.GetByID(ctx, id); err != nil {
			return err
		}

		m := kanban.Move{FromStatus: t.Status, FromPos: t.KanbanPosition, ToStatus: status, ToPos: position}
		n, err := txRepo.Task.CountByStatus(ctx, t.ProjectID, status, "")
		if err != nil {
			return err
		}
		if !m.SameColumn() {
			n, err = txRepo.Task.CountByStatus(ctx, t.ProjectID, status, t.TaskID)
			if err != nil {
				return err
			}
		}
		m.ToPos = kanban.ClampTarget(m, n)

		result = t
		if m.IsNoop() {
			kind = "noop"
			return nil
		}

		for _, sh := range kanban.Plan(m) {
			if err := txRepo.Task.ShiftPositions(ctx, t.ProjectID, sh, t.TaskID); err != nil {
				return err
			}
		}
		now := time.Now()
		completedAt := completionTime(t.Status, m.ToStatus, t.CompletedAt, now)
		if err := txRepo.Task.UpdatePosition(ctx, t.TaskID, m.ToStatus, m.ToPos, completedAt); err != nil {
			return err
		}
		if err := txRepo.Project.Touch(ctx, t.ProjectID, now); err != nil {
			return err
		}

		kind = "reorder"
		if !m.SameColumn() {
			kind = "cross_column"
		}
		t.Status = m.ToStatus
		t.KanbanPosition = m.ToPos
		t.CompletedAt = completedAt
		return nil
	})
	metrics.IncrementKanbanMove(kind)
	if err != nil {
		if isBusiness(err) {
			return nil, err
		}
		s.logger.Error("移动任务失败",
			zap.String("id", id),
			zap.String("status", status),
			zap.Int("position", position),
			zap.Error(err))
		return nil, fmt.Errorf("移动任务失败: %w", err)
	}
	return result, nil
}

func validTaskStatus(status string) bool {
	for _, st := range model.TaskStatuses {
		if st == status {
			return true
		}
	}
	return false
}

// ── 指派 ──

func (s *taskService) Assign(ctx context.Context, id, userID string, actor access.Actor) (*model.Task, error) {
	t, p, flags, err := loadTask(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if !flags.Has(access.CapManage) {
		return nil, pkgerrors.Forbidden("只有管理员或项目导师可以指派任务")
	}
	if containsUserID(t.Assignees, userID) {
		return t, nil
	}
	users, err := projectStudents(p, []string{userID})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Task.AddAssignee(ctx, t, &users[0]); err != nil {
		s.logger.Error("指派任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	t.Assignees = append(t.Assignees, users[0])

	s.activity.Record(ctx, actor.ID, "task.assign", "task", id, nil, model.JSONMap{"user_id": userID})
	s.notifyAssigned(ctx, t, []string{userID}, actor)
	return t, nil
}

func (s *taskService) Unassign(ctx context.Context, id, userID string, actor access.Actor) (*model.Task, error) {
	t, _, flags, err := loadTask(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if !flags.Has(access.CapManage) {
		return nil, pkgerrors.Forbidden("只有管理员或项目导师可以取消指派")
	}
	idx := -1
	for i := range t.Assignees {
		if t.Assignees[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t, nil
	}
	if err := s.repo.Task.RemoveAssignee(ctx, t, &t.Assignees[idx]); err != nil {
		s.logger.Error("取消指派失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	t.Assignees = append(t.Assignees[:idx], t.Assignees[idx+1:]...)

	s.activity.Record(ctx, actor.ID, "task.unassign", "task", id, model.JSONMap{"user_id": userID}, nil)
	return t, nil
}

// notifyAssigned 通知新被指派的用户，操作者本人除外
func (s *taskService) notifyAssigned(ctx context.Context, t *model.Task, userIDs []string, actor access.Actor) {
	var targets []string
	for _, id := range userIDs {
		if id != actor.ID {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return
	}
	url := "/tasks/" + t.TaskID
	s.notifications.Notify(ctx, targets, model.Notification{
		Type:      model.NotificationTaskAssigned,
		Title:     "Nueva tarea asignada",
		Message:   "Se te ha asignado la tarea \"" + t.Title + "\"",
		ActionURL: &url,
		Metadata:  model.JSONMap{"task_id": t.TaskID, "project_id": t.ProjectID},
	})
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
