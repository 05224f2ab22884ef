package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/mq"
)

// ── 评论 ──

func TestComments(t *testing.T) {
	f, p, tasks := setupTestTaskService(t)
	task := createTask(t, tasks, p, "A", model.TaskStatusPending, f.tutor)
	svc := NewCommentService(f.repo, zap.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, task.TaskID, &dto.CreateCommentRequest{Content: "Revisar el modelo", IsInternal: true}, actorOf(f.student))
	if err != nil {
		t.Fatalf("创建评论失败: %v", err)
	}
	if c.AuthorID != f.student.UserID || !c.IsInternal {
		t.Errorf("评论字段不正确: %+v", c)
	}

	_, err = svc.Create(ctx, task.TaskID, &dto.CreateCommentRequest{Content: "x"}, actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)

	content := "Editado"
	_, err = svc.Update(ctx, c.CommentID, &dto.UpdateCommentRequest{Content: &content}, actorOf(f.classmate))
	assertKind(t, err, pkgerrors.ErrForbidden)
	updated, err := svc.Update(ctx, c.CommentID, &dto.UpdateCommentRequest{Content: &content}, actorOf(f.student))
	if err != nil || updated.Content != content {
		t.Fatalf("作者修改评论失败: %v", err)
	}

	assertKind(t, svc.Delete(ctx, c.CommentID, actorOf(f.classmate)), pkgerrors.ErrForbidden)
	if err := svc.Delete(ctx, c.CommentID, actorOf(f.tutor)); err != nil {
		t.Fatalf("导师删除评论失败: %v", err)
	}
	list, _ := svc.ListByTask(ctx, task.TaskID, actorOf(f.student))
	if len(list) != 0 {
		t.Errorf("期望评论已删除，实际剩余 %d", len(list))
	}
	assertKind(t, svc.Delete(ctx, c.CommentID, actorOf(f.tutor)), pkgerrors.ErrNotFound)
}

// ── 附件 ──

func setupTestFileService(t *testing.T) (*fixture, *model.Task, FileService) {
	f, p, tasks := setupTestTaskService(t)
	task := createTask(t, tasks, p, "A", model.TaskStatusPending, f.tutor)
	return f, task, NewFileService(f.repo, f.store, f.settings, zap.NewNop())
}

func TestFileUpload(t *testing.T) {
	f, task, svc := setupTestFileService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, UploadInput{
		AttachableType: model.AttachableTask,
		AttachableID:   task.TaskID,
		Filename:       "memoria.pdf",
		Content:        strings.NewReader("%PDF-1.4"),
	}, actorOf(f.student))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if file.MimeType != "application/pdf" {
		t.Errorf("期望根据扩展名推断 application/pdf，实际 %s", file.MimeType)
	}
	if file.OriginalFilename != "memoria.pdf" || file.FileSize != 8 {
		t.Errorf("附件元信息不正确: %+v", file)
	}

	meta, rc, err := svc.Open(ctx, file.FileID, actorOf(f.tutor))
	if err != nil {
		t.Fatalf("读取附件失败: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF-1.4" || meta.FileID != file.FileID {
		t.Errorf("附件内容不正确: %q", data)
	}

	_, _, err = svc.Open(ctx, file.FileID, actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)

	list, err := svc.List(ctx, model.AttachableTask, task.TaskID, actorOf(f.classmate))
	if err != nil || len(list) != 1 {
		t.Fatalf("期望 1 个附件，实际 %d (%v)", len(list), err)
	}
}

func TestFileUpload_Restrictions(t *testing.T) {
	f, task, svc := setupTestFileService(t)
	ctx := context.Background()
	in := UploadInput{AttachableType: model.AttachableTask, AttachableID: task.TaskID}

	in.Filename, in.Content = "script.exe", strings.NewReader("MZ")
	_, err := svc.Upload(ctx, in, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrValidation)

	f.m.settings.items[model.SettingMaxFileSizeMB] = &model.SystemSetting{
		SettingKey: model.SettingMaxFileSizeMB, SettingValue: "1", SettingType: model.SettingTypeInteger,
	}
	in.Filename, in.Content = "grande.pdf", strings.NewReader(strings.Repeat("x", 1<<20+1))
	_, err = svc.Upload(ctx, in, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrValidation)

	in.AttachableType, in.Filename, in.Content = "milestone", "a.pdf", strings.NewReader("x")
	_, err = svc.Upload(ctx, in, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrValidation)
}

func TestFileUpload_RemovesBlobWhenRecordFails(t *testing.T) {
	f, task, svc := setupTestFileService(t)
	f.m.files.createErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), UploadInput{
		AttachableType: model.AttachableTask,
		AttachableID:   task.TaskID,
		Filename:       "a.txt",
		Content:        strings.NewReader("hola"),
	}, actorOf(f.student))
	if err == nil {
		t.Fatal("期望写入记录失败")
	}
	if len(f.store.files) != 0 || len(f.store.removed) != 1 {
		t.Errorf("记录写入失败时应删除已保存的文件，剩余 %d", len(f.store.files))
	}
}

// ── 通知 ──

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.notifications.Notify(ctx, []string{f.student.UserID, f.student.UserID, f.classmate.UserID}, model.Notification{
		Type:    model.NotificationTaskAssigned,
		Title:   "Nueva tarea",
		Message: "Hola",
	})
	if len(f.m.notifications.items) != 2 {
		t.Fatalf("重复用户只应通知一次，实际 %d 条", len(f.m.notifications.items))
	}
	if len(f.pub.events) != 2 || f.pub.events[0].routingKey != mq.RoutingNotificationCreated {
		t.Fatalf("期望发布 2 条 %s 事件", mq.RoutingNotificationCreated)
	}

	list, total, err := f.notifications.ListMine(ctx, f.student.UserID, true, 0, 20)
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("期望 1 条未读通知，实际 %d (%v)", total, err)
	}

	assertKind(t, f.notifications.MarkRead(ctx, list[0].NotificationID, f.classmate.UserID), pkgerrors.ErrNotFound)
	if err := f.notifications.MarkRead(ctx, list[0].NotificationID, f.student.UserID); err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}
	if _, total, _ = f.notifications.ListMine(ctx, f.student.UserID, true, 0, 20); total != 0 {
		t.Errorf("期望无未读通知，实际 %d", total)
	}

	n, err := f.notifications.MarkAllRead(ctx, f.classmate.UserID)
	if err != nil || n != 1 {
		t.Errorf("期望标记 1 条，实际 %d (%v)", n, err)
	}
}

func TestNotifications_PublishFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker unavailable")

	f.notifications.Notify(context.Background(), []string{f.student.UserID}, model.Notification{
		Type: model.NotificationTaskAssigned, Title: "t", Message: "m",
	})
	if len(f.m.notifications.items) != 1 {
		t.Error("发布失败时通知仍应写入")
	}
}

// ── 系统设置 ──

func seedTestSettings(t *testing.T, f *fixture) {
	t.Helper()
	res, err := Seed(context.Background(), f.repo, &config.SeedConfig{
		AdminEmail: "root@fct.test", AdminPassword: "password", AdminName: "Root",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("写入初始数据失败: %v", err)
	}
	if !res.AdminCreated || res.Criteria != 5 || res.Settings != 5 {
		t.Fatalf("初始数据统计不正确: %+v", res)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	f := newFixture(t)
	seedTestSettings(t, f)

	res, err := Seed(context.Background(), f.repo, &config.SeedConfig{
		AdminEmail: "ROOT@fct.test", AdminPassword: "password", AdminName: "Root",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("再次写入失败: %v", err)
	}
	if res.AdminCreated {
		t.Error("管理员已存在时不应重复创建")
	}
	if len(f.m.criteria.items) != 5 || len(f.m.settings.items) != 5 {
		t.Errorf("重复执行不应产生重复数据: %d 标准, %d 设置", len(f.m.criteria.items), len(f.m.settings.items))
	}
}

func TestSystemSettings(t *testing.T) {
	f := newFixture(t)
	seedTestSettings(t, f)
	ctx := context.Background()

	_, err := f.settings.Update(ctx, model.SettingMaxFileSizeMB, "10", actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrForbidden)

	_, err = f.settings.Update(ctx, model.SettingMaxFileSizeMB, "diez", actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrValidation)

	_, err = f.settings.Update(ctx, "app_version", "2.0.0", actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrForbidden)

	_, err = f.settings.Update(ctx, "missing", "x", actorOf(f.admin))
	assertKind(t, err, pkgerrors.ErrNotFound)

	s, err := f.settings.Update(ctx, model.SettingMaxFileSizeMB, "10", actorOf(f.admin))
	if err != nil {
		t.Fatalf("更新设置失败: %v", err)
	}
	if s.UpdatedByID == nil || *s.UpdatedByID != f.admin.UserID {
		t.Error("应记录最后修改人")
	}
	if got := f.settings.MaxFileSizeBytes(ctx); got != 10<<20 {
		t.Errorf("期望 %d 字节，实际 %d", 10<<20, got)
	}

	if _, err := f.settings.Update(ctx, model.SettingAllowedFileTypes, `[".PDF","zip"]`, actorOf(f.admin)); err != nil {
		t.Fatalf("更新允许类型失败: %v", err)
	}
	types := f.settings.AllowedFileTypes(ctx)
	if len(types) != 2 || types[0] != "pdf" || types[1] != "zip" {
		t.Errorf("允许类型应规范化为小写无点，实际 %v", types)
	}
}

func TestSystemSettings_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if got := f.settings.MaxFileSizeBytes(ctx); got != 50<<20 {
		t.Errorf("期望默认 50MB，实际 %d", got)
	}
	if got := f.settings.AllowedFileTypes(ctx); len(got) != 8 {
		t.Errorf("期望默认 8 种类型，实际 %v", got)
	}
}

// ── 审计日志 ──

func TestActivityLog_RequestMeta(t *testing.T) {
	f := newFixture(t)
	ctx := WithRequestMeta(context.Background(), RequestMeta{IP: "10.0.0.7", UserAgent: "curl/8"})

	f.activity.Record(ctx, f.admin.UserID, "project.create", "project", "p-1", nil, model.JSONMap{"title": "x"})
	f.activity.Record(context.Background(), "", "project.delete", "project", "p-2", nil, nil)

	list, total, err := f.activity.List(context.Background(), "project", "p-1", 0, 20)
	if err != nil || total != 1 {
		t.Fatalf("期望 1 条记录，实际 %d (%v)", total, err)
	}
	e := list[0]
	if e.IPAddress == nil || *e.IPAddress != "10.0.0.7" || e.UserAgent == nil || *e.UserAgent != "curl/8" {
		t.Errorf("请求元信息未记录: %+v", e)
	}
	if e.UserID == nil || *e.UserID != f.admin.UserID {
		t.Error("应记录操作者")
	}
	if f.m.activity.entries[1].UserID != nil {
		t.Error("无操作者时 user_id 应为空")
	}
}
