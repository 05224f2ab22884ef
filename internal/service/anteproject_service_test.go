package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/pkg/mq"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

func setupTestAnteprojectService(t *testing.T) (*fixture, AnteprojectService) {
	f := newFixture(t)
	svc := NewAnteprojectService(f.repo, f.notifications, f.activity, zap.NewNop())
	return f, svc
}

func newAnteprojectRequest(f *fixture) *dto.CreateAnteprojectRequest {
	return &dto.CreateAnteprojectRequest{
		Title:        "Gestor de prácticas",
		ProjectType:  model.ProjectTypeExecution,
		Description:  "Aplicación web para la gestión de la FCT",
		AcademicYear: "2025-2026",
		TutorID:      f.tutor.UserID,
		StudentIDs:   []string{f.student.UserID, f.classmate.UserID},
	}
}

func createDraft(t *testing.T, f *fixture, svc AnteprojectService) *model.Anteproject {
	t.Helper()
	a, err := svc.Create(context.Background(), newAnteprojectRequest(f), actorOf(f.student))
	if err != nil {
		t.Fatalf("创建预项目失败: %v", err)
	}
	return a
}

// ── 创建 ──

func TestAnteprojectCreate_Defaults(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	if a.Status != model.AnteprojectDraft {
		t.Errorf("期望状态 draft，实际 %s", a.Status)
	}
	if a.Institution != model.DefaultInstitution {
		t.Errorf("期望默认机构 %s，实际 %s", model.DefaultInstitution, a.Institution)
	}
	if a.Modality != model.DefaultModality || a.Location != model.DefaultLocation {
		t.Errorf("默认授课方式或地点不正确: %s / %s", a.Modality, a.Location)
	}
	if a.Version != 1 {
		t.Errorf("期望版本 1，实际 %d", a.Version)
	}
	stored, _ := f.m.anteprojects.GetByID(context.Background(), a.AnteprojectID)
	if len(stored.Students) != 2 {
		t.Errorf("期望 2 名学生，实际 %d", len(stored.Students))
	}
}

func TestAnteprojectCreate_OnlyStudents(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	_, err := svc.Create(context.Background(), newAnteprojectRequest(f), actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestAnteprojectCreate_CreatorMustBeListed(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	_, err := svc.Create(context.Background(), newAnteprojectRequest(f), actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestAnteprojectCreate_TutorMustBeTutor(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	req := newAnteprojectRequest(f)
	req.TutorID = f.classmate.UserID

	_, err := svc.Create(context.Background(), req, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrNotFound)
	if len(f.m.anteprojects.items) != 0 {
		t.Error("校验失败时不应写入预项目")
	}
}

func TestAnteprojectCreate_UnknownStudent(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	req := newAnteprojectRequest(f)
	req.StudentIDs = append(req.StudentIDs, "00000000-0000-0000-0000-000000000000")

	_, err := svc.Create(context.Background(), req, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrNotFound)
}

// ── 可见性 ──

func TestAnteprojectGetByID_Visibility(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()

	for _, u := range []*model.User{f.admin, f.tutor, f.student, f.classmate} {
		if _, err := svc.GetByID(ctx, a.AnteprojectID, actorOf(u)); err != nil {
			t.Errorf("%s 应可查看预项目: %v", u.FullName, err)
		}
	}
	_, err := svc.GetByID(ctx, a.AnteprojectID, actorOf(f.otherTutor))
	assertKind(t, err, pkgerrors.ErrForbidden)
	_, err = svc.GetByID(ctx, a.AnteprojectID, actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)
	_, err = svc.GetByID(ctx, "missing", actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrNotFound)
}

func TestAnteprojectList_FiltersByRole(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	createDraft(t, f, svc)
	ctx := context.Background()

	cases := []struct {
		user *model.User
		want int
	}{
		{f.admin, 1},
		{f.tutor, 1},
		{f.otherTutor, 0},
		{f.classmate, 1},
		{f.outsider, 0},
	}
	for _, c := range cases {
		list, err := svc.List(ctx, &dto.AnteprojectListRequest{}, actorOf(c.user))
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if len(list) != c.want {
			t.Errorf("%s: 期望 %d 条，实际 %d", c.user.FullName, c.want, len(list))
		}
	}
}

// ── 状态机 ──

func TestAnteprojectWorkflow_FullLifecycle(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()
	id := a.AnteprojectID

	a, err := svc.Submit(ctx, id, actorOf(f.student))
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if a.Status != model.AnteprojectSubmitted || a.SubmittedAt == nil {
		t.Fatalf("提交后状态不正确: %s", a.Status)
	}

	if a, err = svc.Review(ctx, id, actorOf(f.tutor)); err != nil {
		t.Fatalf("开始评审失败: %v", err)
	}
	if a.Status != model.AnteprojectUnderReview {
		t.Fatalf("期望 under_review，实际 %s", a.Status)
	}

	comments := "Buen planteamiento"
	if a, err = svc.Approve(ctx, id, &comments, actorOf(f.tutor)); err != nil {
		t.Fatalf("通过失败: %v", err)
	}
	if a.Status != model.AnteprojectApproved {
		t.Fatalf("期望 approved，实际 %s", a.Status)
	}
	if a.EvaluationDate == nil || a.ReviewedAt == nil {
		t.Error("通过后应记录评审时间")
	}
	if a.TutorComments == nil || *a.TutorComments != comments {
		t.Error("通过时应保存导师评语")
	}

	defense := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	if a, err = svc.ScheduleDefense(ctx, id, defense, "Aula 3", actorOf(f.tutor)); err != nil {
		t.Fatalf("安排答辩失败: %v", err)
	}
	if a.Status != model.AnteprojectDefenseScheduled || a.DefenseDate == nil || !a.DefenseDate.Equal(defense) {
		t.Fatalf("安排答辩后字段不正确: %+v", a)
	}

	if a, err = svc.CompleteDefense(ctx, id, actorOf(f.admin)); err != nil {
		t.Fatalf("完成答辩失败: %v", err)
	}
	if a.Status != model.AnteprojectCompleted {
		t.Fatalf("期望 completed，实际 %s", a.Status)
	}

	// COMPLETED 没有出边
	_, err = svc.Review(ctx, id, actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrForbidden)

	stored := f.m.anteprojects.items[id]
	if stored.Version != 6 {
		t.Errorf("期望 5 次流转后版本为 6，实际 %d", stored.Version)
	}

	actions := f.m.activity.actions()
	want := []string{"anteproject.create", "anteproject.submit", "anteproject.review",
		"anteproject.approve", "anteproject.schedule_defense", "anteproject.complete_defense"}
	if len(actions) != len(want) {
		t.Fatalf("期望 %d 条审计记录，实际 %v", len(want), actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("第 %d 条审计记录期望 %s，实际 %s", i, want[i], actions[i])
		}
	}
}

func TestAnteprojectWorkflow_ApproveDraftForbidden(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	_, err := svc.Approve(context.Background(), a.AnteprojectID, nil, actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrForbidden)
	if f.m.anteprojects.items[a.AnteprojectID].Status != model.AnteprojectDraft {
		t.Error("被拒绝的流转不应修改状态")
	}
}

func TestAnteprojectWorkflow_RoleChecks(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()
	id := a.AnteprojectID

	// 导师不能代替学生提交
	_, err := svc.Submit(ctx, id, actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrForbidden)
	// 非关联导师无任何身份
	_, err = svc.Submit(ctx, id, actorOf(f.otherTutor))
	assertKind(t, err, pkgerrors.ErrForbidden)

	if _, err := svc.Submit(ctx, id, actorOf(f.classmate)); err != nil {
		t.Fatalf("任一关联学生都可以提交: %v", err)
	}
	// 学生不能评审自己的预项目
	_, err = svc.Review(ctx, id, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestAnteprojectWorkflow_Reject(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()
	id := a.AnteprojectID

	if _, err := svc.Submit(ctx, id, actorOf(f.student)); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if _, err := svc.Review(ctx, id, actorOf(f.tutor)); err != nil {
		t.Fatalf("开始评审失败: %v", err)
	}

	_, err := svc.Reject(ctx, id, "", actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrValidation)

	a, err = svc.Reject(ctx, id, "Falta alcance", actorOf(f.tutor))
	if err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	if a.Status != model.AnteprojectRejected || a.TutorComments == nil {
		t.Fatalf("驳回后字段不正确: %s", a.Status)
	}

	// REJECTED 为终态
	_, err = svc.ScheduleDefense(ctx, id, time.Now(), "Aula 1", actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestAnteprojectWorkflow_ScheduleDefenseValidation(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	_, err := svc.ScheduleDefense(context.Background(), a.AnteprojectID, time.Time{}, "Aula 1", actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrValidation)
	_, err = svc.ScheduleDefense(context.Background(), a.AnteprojectID, time.Now(), "", actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrValidation)
}

func TestAnteprojectWorkflow_ConcurrentModification(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	f.m.anteprojects.updateErr = pkgerrors.ErrOptimisticLock
	_, err := svc.Submit(context.Background(), a.AnteprojectID, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrConflict)
}

func TestAnteprojectWorkflow_Notifications(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()
	id := a.AnteprojectID

	if _, err := svc.Submit(ctx, id, actorOf(f.student)); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	tutorInbox := f.m.notifications.forUser(f.tutor.UserID)
	if len(tutorInbox) != 1 || tutorInbox[0].Type != model.NotificationAnteprojectSubmitted {
		t.Fatalf("提交后导师应收到 1 条提交通知，实际 %d", len(tutorInbox))
	}

	if _, err := svc.Review(ctx, id, actorOf(f.tutor)); err != nil {
		t.Fatalf("开始评审失败: %v", err)
	}
	for _, s := range []*model.User{f.student, f.classmate} {
		inbox := f.m.notifications.forUser(s.UserID)
		if len(inbox) != 1 || inbox[0].Type != model.NotificationAnteprojectReviewed {
			t.Errorf("%s 应收到评审通知", s.FullName)
		}
	}

	if len(f.pub.events) != 3 {
		t.Fatalf("期望发布 3 条事件，实际 %d", len(f.pub.events))
	}
	for _, e := range f.pub.events {
		if e.routingKey != mq.RoutingNotificationCreated {
			t.Errorf("期望路由键 %s，实际 %s", mq.RoutingNotificationCreated, e.routingKey)
		}
	}
}

// ── 编辑 / 删除 ──

func TestAnteprojectUpdate_DraftOnlyForStudents(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()
	id := a.AnteprojectID

	title := "Gestor de prácticas v2"
	updated, err := svc.Update(ctx, id, &dto.UpdateAnteprojectRequest{Title: &title}, actorOf(f.student))
	if err != nil {
		t.Fatalf("学生修改草稿失败: %v", err)
	}
	if updated.Title != title || updated.Version != 2 {
		t.Errorf("期望标题 %s 版本 2，实际 %s 版本 %d", title, updated.Title, updated.Version)
	}

	if _, err := svc.Submit(ctx, id, actorOf(f.student)); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	_, err = svc.Update(ctx, id, &dto.UpdateAnteprojectRequest{Title: &title}, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrForbidden)

	if _, err := svc.Update(ctx, id, &dto.UpdateAnteprojectRequest{Title: &title}, actorOf(f.admin)); err != nil {
		t.Errorf("管理员可修改任意状态的预项目: %v", err)
	}
}

func TestAnteprojectUpdate_Reassign(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()

	newTutor := f.otherTutor.UserID
	_, err := svc.Update(ctx, a.AnteprojectID, &dto.UpdateAnteprojectRequest{TutorID: &newTutor}, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrForbidden)

	students := []string{f.student.UserID}
	updated, err := svc.Update(ctx, a.AnteprojectID, &dto.UpdateAnteprojectRequest{
		TutorID:    &newTutor,
		StudentIDs: &students,
	}, actorOf(f.admin))
	if err != nil {
		t.Fatalf("管理员更换导师失败: %v", err)
	}
	if updated.TutorID != newTutor {
		t.Errorf("期望导师 %s，实际 %s", newTutor, updated.TutorID)
	}
	if len(f.m.anteprojects.items[a.AnteprojectID].Students) != 1 {
		t.Error("学生名单应被替换为 1 人")
	}
}

func TestAnteprojectUpdate_UnchangedMembersAllowedForStudent(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	sameTutor := f.tutor.UserID
	sameStudents := []string{f.classmate.UserID, f.student.UserID}
	title := "Gestor de prácticas FCT"
	updated, err := svc.Update(context.Background(), a.AnteprojectID, &dto.UpdateAnteprojectRequest{
		Title:      &title,
		TutorID:    &sameTutor,
		StudentIDs: &sameStudents,
	}, actorOf(f.student))
	if err != nil {
		t.Fatalf("原样回传导师与学生不应被拒绝: %v", err)
	}
	if updated.Title != title || updated.TutorID != f.tutor.UserID {
		t.Errorf("期望标题 %s 导师不变，实际 %s / %s", title, updated.Title, updated.TutorID)
	}

	onlyMe := []string{f.student.UserID}
	_, err = svc.Update(context.Background(), a.AnteprojectID, &dto.UpdateAnteprojectRequest{StudentIDs: &onlyMe}, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestAnteprojectUpdate_EmptyStudentListRejected(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	empty := []string{}
	_, err := svc.Update(context.Background(), a.AnteprojectID, &dto.UpdateAnteprojectRequest{StudentIDs: &empty}, actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrValidation)
	if n := len(f.m.anteprojects.items[a.AnteprojectID].Students); n != 2 {
		t.Errorf("学生名单不应被清空，实际 %d 人", n)
	}
}

func TestAnteprojectUpdate_Conflict(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)

	f.m.anteprojects.updateErr = pkgerrors.ErrOptimisticLock
	title := "Otro título"
	_, err := svc.Update(context.Background(), a.AnteprojectID, &dto.UpdateAnteprojectRequest{Title: &title}, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrConflict)
}

func TestAnteprojectDelete(t *testing.T) {
	f, svc := setupTestAnteprojectService(t)
	a := createDraft(t, f, svc)
	ctx := context.Background()

	err := svc.Delete(ctx, a.AnteprojectID, actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)

	if err := svc.Delete(ctx, a.AnteprojectID, actorOf(f.student)); err != nil {
		t.Fatalf("删除草稿失败: %v", err)
	}
	if _, ok := f.m.anteprojects.items[a.AnteprojectID]; ok {
		t.Error("预项目应已删除")
	}
}
