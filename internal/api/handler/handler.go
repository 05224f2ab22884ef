package handler

import "proyecto-fct/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Anteproject  *AnteprojectHandler
	Project      *ProjectHandler
	Task         *TaskHandler
	File         *FileHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Anteproject:  NewAnteprojectHandler(svc.Anteproject, svc.Evaluation),
		Project:      NewProjectHandler(svc.Project, svc.Milestone),
		Task:         NewTaskHandler(svc.Task, svc.Comment),
		File:         NewFileHandler(svc.File),
		Notification: NewNotificationHandler(svc.Notification),
		Admin:        NewAdminHandler(svc.ActivityLog, svc.SystemSetting),
		Export:       NewExportHandler(svc.Export),
	}
}
