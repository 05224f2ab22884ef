package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
)

// fixture 一组典型用户与可选的项目数据
type fixture struct {
	repo  *repository.Repository
	m     *mocks
	pub   *mockPublisher
	store *mockFileStore

	admin, tutor, otherTutor *model.User
	student, classmate       *model.User
	outsider                 *model.User

	notifications NotificationService
	activity      ActivityLogService
	settings      SystemSettingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, m := newMockRepository()
	f := &fixture{repo: repo, m: m, pub: &mockPublisher{}, store: newMockFileStore()}

	f.admin = f.addUser(t, "Admin", "admin@fct.test", model.RoleAdmin)
	f.tutor = f.addUser(t, "Tutor Uno", "tutor@fct.test", model.RoleTutor)
	f.otherTutor = f.addUser(t, "Tutor Dos", "tutor2@fct.test", model.RoleTutor)
	f.student = f.addUser(t, "Alumno Uno", "alumno1@fct.test", model.RoleStudent)
	f.classmate = f.addUser(t, "Alumno Dos", "alumno2@fct.test", model.RoleStudent)
	f.outsider = f.addUser(t, "Alumno Tres", "alumno3@fct.test", model.RoleStudent)

	logger := zap.NewNop()
	f.notifications = NewNotificationService(repo, f.pub, logger)
	f.activity = NewActivityLogService(repo, logger)
	f.settings = NewSystemSettingService(repo, logger)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email, role string) *model.User {
	t.Helper()
	u := &model.User{FullName: name, Email: email, Role: role, Status: model.UserStatusActive}
	if err := f.m.users.Create(context.Background(), u); err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return u
}

// addProject 创建由 tutor 指导、student 与 classmate 参与的项目
func (f *fixture) addProject(t *testing.T) *model.Project {
	t.Helper()
	p := &model.Project{
		Title:            "Plataforma de gestión",
		Description:      "Proyecto de prueba",
		Status:           model.ProjectStatusInDevelopment,
		TutorID:          f.tutor.UserID,
		Tutor:            f.tutor,
		Students:         []model.User{*f.student, *f.classmate},
		GithubMainBranch: "main",
	}
	if err := f.m.projects.Create(context.Background(), p); err != nil {
		t.Fatalf("创建测试项目失败: %v", err)
	}
	return p
}

func actorOf(u *model.User) access.Actor {
	return access.Actor{ID: u.UserID, Role: u.Role}
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("期望错误 %v，实际为 nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("期望错误类别 %v，实际 %v", kind, err)
	}
}
