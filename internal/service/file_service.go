package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/storage"
)

// UploadInput 上传附件参数
type UploadInput struct {
	AttachableType string
	AttachableID   string
	Filename       string
	MimeType       string
	Content        io.Reader
}

// FileService 附件业务接口
type FileService interface {
	Upload(ctx context.Context, in UploadInput, actor access.Actor) (*model.File, error)
	List(ctx context.Context, attachableType, attachableID string, actor access.Actor) ([]model.File, error)
	// Open 返回附件元信息与内容，调用方负责关闭 reader
	Open(ctx context.Context, id string, actor access.Actor) (*model.File, io.ReadCloser, error)
}

type fileService struct {
	repo     *repository.Repository
	store    FileStore
	settings SystemSettingService
	logger   *zap.Logger
}

// NewFileService 创建 FileService 实例
func NewFileService(repo *repository.Repository, store FileStore, settings SystemSettingService, logger *zap.Logger) FileService {
	return &fileService{repo: repo, store: store, settings: settings, logger: logger}
}

// checkAttachable 校验操作者对附件所属实体可见
func (s *fileService) checkAttachable(ctx context.Context, attachableType, attachableID string, actor access.Actor) error {
	switch attachableType {
	case model.AttachableTask:
		_, _, _, err := loadTask(ctx, s.repo, attachableID, actor)
		return err
	case model.AttachableAnteproject:
		_, _, err := loadAnteproject(ctx, s.repo, attachableID, actor)
		return err
	case model.AttachableComment:
		c, err := s.repo.Comment.GetByID(ctx, attachableID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.NotFound("评论 %s 不存在", attachableID)
			}
			return err
		}
		_, _, _, err = loadTask(ctx, s.repo, c.TaskID, actor)
		return err
	}
	return pkgerrors.Validation("不支持的附件类型 %s", attachableType)
}

func (s *fileService) Upload(ctx context.Context, in UploadInput, actor access.Actor) (*model.File, error) {
	if s.store == nil {
		return nil, errors.New("附件存储未配置")
	}
	if err := s.checkAttachable(ctx, in.AttachableType, in.AttachableID, actor); err != nil {
		return nil, err
	}

	ext := storage.Extension(in.Filename)
	if !allowedExtension(ext, s.settings.AllowedFileTypes(ctx)) {
		return nil, pkgerrors.Validation("不允许上传 .%s 类型的文件", ext)
	}

	maxBytes := s.settings.MaxFileSizeBytes(ctx)
	name, path, size, err := s.store.Save(in.Filename, in.Content, maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, pkgerrors.Validation("文件大小不能超过 %d MB", maxBytes>>20)
		}
		s.logger.Error("保存附件失败", zap.String("filename", in.Filename), zap.Error(err))
		return nil, err
	}

	mimeType := in.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(filepath.Ext(in.Filename)); guessed != "" {
			mimeType = guessed
		}
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	f := &model.File{
		Filename:         name,
		OriginalFilename: filepath.Base(in.Filename),
		FilePath:         path,
		FileSize:         size,
		MimeType:         mimeType,
		UploadedByID:     actor.ID,
		AttachableType:   in.AttachableType,
		AttachableID:     in.AttachableID,
	}
	if err := s.repo.File.Create(ctx, f); err != nil {
		s.logger.Error("写入附件记录失败", zap.String("path", path), zap.Error(err))
		if rmErr := s.store.Remove(path); rmErr != nil {
			s.logger.Warn("清理附件文件失败", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, err
	}

	s.logger.Info("附件已上传",
		zap.String("id", f.FileID),
		zap.String("attachable_type", f.AttachableType),
		zap.String("attachable_id", f.AttachableID),
		zap.Int64("size", f.FileSize))
	return f, nil
}

func (s *fileService) List(ctx context.Context, attachableType, attachableID string, actor access.Actor) ([]model.File, error) {
	if err := s.checkAttachable(ctx, attachableType, attachableID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.File.ListByAttachable(ctx, attachableType, attachableID)
	if err != nil {
		s.logger.Error("查询附件失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *fileService) Open(ctx context.Context, id string, actor access.Actor) (*model.File, io.ReadCloser, error) {
	f, err := s.repo.File.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, pkgerrors.NotFound("附件 %s 不存在", id)
		}
		return nil, nil, err
	}
	if err := s.checkAttachable(ctx, f.AttachableType, f.AttachableID, actor); err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, errors.New("附件存储未配置")
	}
	rc, err := s.store.Open(f.FilePath)
	if err != nil {
		s.logger.Error("读取附件失败", zap.String("id", id), zap.Error(err))
		return nil, nil, pkgerrors.NotFound("附件内容不存在")
	}
	return f, rc, nil
}

func allowedExtension(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
