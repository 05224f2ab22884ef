package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/metrics"
)

// ── 预项目状态机 ──

// 流转动作
const (
	ActionSubmit          = "submit"
	ActionReview          = "review"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionScheduleDefense = "schedule_defense"
	ActionCompleteDefense = "complete_defense"
)

// transition 状态机的一条边
type transition struct {
	from   string
	to     string
	cap    access.Capability
	denied string // 身份不满足时的原因
}

// transitions 只有表中存在的边可以流转，REJECTED 与 COMPLETED 没有出边
var transitions = map[string]transition{
	ActionSubmit:          {from: model.AnteprojectDraft, to: model.AnteprojectSubmitted, cap: access.CapSubmit, denied: "只有预项目的学生可以提交"},
	ActionReview:          {from: model.AnteprojectSubmitted, to: model.AnteprojectUnderReview, cap: access.CapReview, denied: "只有导师或管理员可以开始评审"},
	ActionApprove:         {from: model.AnteprojectUnderReview, to: model.AnteprojectApproved, cap: access.CapReview, denied: "只有导师或管理员可以通过预项目"},
	ActionReject:          {from: model.AnteprojectUnderReview, to: model.AnteprojectRejected, cap: access.CapReview, denied: "只有导师或管理员可以驳回预项目"},
	ActionScheduleDefense: {from: model.AnteprojectApproved, to: model.AnteprojectDefenseScheduled, cap: access.CapReview, denied: "只有导师或管理员可以安排答辩"},
	ActionCompleteDefense: {from: model.AnteprojectDefenseScheduled, to: model.AnteprojectCompleted, cap: access.CapReview, denied: "只有导师或管理员可以完成答辩"},
}

// checkTransition 先校验身份再校验当前状态，任一不满足均为 Forbidden
func checkTransition(action string, a *model.Anteproject, flags access.Flags) (transition, error) {
	t, ok := transitions[action]
	if !ok {
		return transition{}, pkgerrors.Validation("未知的流转动作 %s", action)
	}
	if !flags.Has(t.cap) {
		return t, pkgerrors.Forbidden("%s", t.denied)
	}
	if a.Status != t.from {
		return t, pkgerrors.Forbidden("预项目当前状态为 %s，只有 %s 状态可以执行 %s", a.Status, t.from, action)
	}
	return t, nil
}

// transitionOutcome 将错误归类为指标标签
func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pkgerrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, pkgerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, pkgerrors.ErrConflict), errors.Is(err, pkgerrors.ErrOptimisticLock):
		return "conflict"
	case errors.Is(err, pkgerrors.ErrValidation):
		return "invalid"
	}
	return "error"
}

// transit 执行一次状态流转：加载、校验、应用字段变更、带版本号写回
func (s *anteprojectService) transit(ctx context.Context, id, action string, actor access.Actor, apply func(a *model.Anteproject, now time.Time)) (result *model.Anteproject, err error) {
	defer func() { metrics.IncrementTransition(action, transitionOutcome(err)) }()

	a, flags, err := loadAnteproject(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	t, err := checkTransition(action, a, flags)
	if err != nil {
		return nil, err
	}

	before := a.Status
	now := time.Now()
	a.Status = t.to
	if apply != nil {
		apply(a, now)
	}

	if err := s.repo.Anteproject.Update(ctx, a); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, pkgerrors.Conflict("预项目已被其他人修改，请刷新后重试")
		}
		s.logger.Error("预项目状态流转失败",
			zap.String("id", id),
			zap.String("action", action),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("预项目状态流转",
		zap.String("id", id),
		zap.String("action", action),
		zap.String("from", before),
		zap.String("to", a.Status),
		zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "anteproject."+action, "anteproject", a.AnteprojectID,
		model.JSONMap{"status": before}, model.JSONMap{"status": a.Status})
	s.notifyTransition(ctx, action, a)
	return a, nil
}

// notifyTransition 提交通知导师，其余流转通知学生
func (s *anteprojectService) notifyTransition(ctx context.Context, action string, a *model.Anteproject) {
	url := "/anteprojects/" + a.AnteprojectID
	meta := model.JSONMap{"anteproject_id": a.AnteprojectID, "status": a.Status}

	if action == ActionSubmit {
		s.notifications.Notify(ctx, []string{a.TutorID}, model.Notification{
			Type:      model.NotificationAnteprojectSubmitted,
			Title:     "Anteproyecto enviado",
			Message:   "El anteproyecto \"" + a.Title + "\" ha sido enviado para revisión",
			ActionURL: &url,
			Metadata:  meta,
		})
		return
	}

	n := model.Notification{
		Type:      model.NotificationAnteprojectReviewed,
		ActionURL: &url,
		Metadata:  meta,
	}
	switch action {
	case ActionReview:
		n.Title = "Anteproyecto en revisión"
		n.Message = "Tu tutor ha comenzado a revisar \"" + a.Title + "\""
	case ActionApprove:
		n.Title = "Anteproyecto aprobado"
		n.Message = "El anteproyecto \"" + a.Title + "\" ha sido aprobado"
	case ActionReject:
		n.Title = "Anteproyecto rechazado"
		n.Message = "El anteproyecto \"" + a.Title + "\" ha sido rechazado"
	case ActionScheduleDefense:
		n.Type = model.NotificationDefenseScheduled
		n.Title = "Defensa programada"
		n.Message = "Se ha programado la defensa de \"" + a.Title + "\""
		if a.DefenseDate != nil {
			n.Metadata["defense_date"] = a.DefenseDate.Format(time.RFC3339)
		}
	case ActionCompleteDefense:
		n.Title = "Defensa completada"
		n.Message = "La defensa de \"" + a.Title + "\" se ha completado"
	}
	s.notifications.Notify(ctx, studentIDs(a.Students), n)
}

func studentIDs(users []model.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	return ids
}

// ── 流转操作 ──

func (s *anteprojectService) Submit(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error) {
	return s.transit(ctx, id, ActionSubmit, actor, func(a *model.Anteproject, now time.Time) {
		a.SubmittedAt = &now
	})
}

func (s *anteprojectService) Review(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error) {
	return s.transit(ctx, id, ActionReview, actor, nil)
}

func (s *anteprojectService) Approve(ctx context.Context, id string, comments *string, actor access.Actor) (*model.Anteproject, error) {
	return s.transit(ctx, id, ActionApprove, actor, func(a *model.Anteproject, now time.Time) {
		a.ReviewedAt = &now
		a.EvaluationDate = &now
		if comments != nil && *comments != "" {
			a.TutorComments = comments
		}
	})
}

func (s *anteprojectService) Reject(ctx context.Context, id string, comments string, actor access.Actor) (*model.Anteproject, error) {
	if comments == "" {
		return nil, pkgerrors.Validation("驳回时必须填写评语")
	}
	return s.transit(ctx, id, ActionReject, actor, func(a *model.Anteproject, now time.Time) {
		a.TutorComments = &comments
		a.ReviewedAt = &now
		a.EvaluationDate = &now
	})
}

func (s *anteprojectService) ScheduleDefense(ctx context.Context, id string, date time.Time, location string, actor access.Actor) (*model.Anteproject, error) {
	if date.IsZero() || location == "" {
		return nil, pkgerrors.Validation("答辩时间和地点均不能为空")
	}
	return s.transit(ctx, id, ActionScheduleDefense, actor, func(a *model.Anteproject, _ time.Time) {
		a.DefenseDate = &date
		a.DefenseLocation = &location
	})
}

func (s *anteprojectService) CompleteDefense(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error) {
	return s.transit(ctx, id, ActionCompleteDefense, actor, nil)
}
