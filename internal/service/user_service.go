package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// UserService 用户业务接口
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	Create(ctx context.Context, req *dto.CreateUserRequest, actor access.Actor) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, actor access.Actor) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string, actor access.Actor) error
	ResetPassword(ctx context.Context, id string, actor access.Actor) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportStudents(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row      int
	FullName string
	Email    string
	NRE      string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{Role: req.Role, Status: req.Status, Keyword: req.Keyword}
	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, ToUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ────────────────────── 创建 ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, actor access.Actor) (*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.Forbidden("只有管理员可以创建用户")
	}
	if req.NRE != nil && *req.NRE != "" && req.Role != model.RoleStudent {
		return nil, pkgerrors.Validation("只有学生可以填写 NRE")
	}
	if err := s.checkUnique(ctx, "", req.Email, req.NRE); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		NRE:          emptyToNil(req.NRE),
		Role:         req.Role,
		Phone:        req.Phone,
		Biography:    req.Biography,
		Status:       model.UserStatusActive,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("id", user.UserID), zap.String("role", user.Role))
	resp := ToUserResponse(user)
	return &resp, nil
}

// ────────────────────── 更新 ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, actor access.Actor) (*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		if actor.ID != id {
			return nil, pkgerrors.Forbidden("只能修改自己的信息")
		}
		if req.Role != nil || req.Status != nil {
			return nil, pkgerrors.Forbidden("只有管理员可以修改角色或状态")
		}
	}
	if req.Role != nil && actor.ID == id {
		return nil, pkgerrors.Forbidden("不能修改自己的角色")
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	var email string
	if req.Email != nil {
		email = *req.Email
	}
	if err := s.checkUnique(ctx, id, email, req.NRE); err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Biography != nil {
		user.Biography = req.Biography
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.NRE != nil {
		user.NRE = emptyToNil(req.NRE)
	}
	if user.NRE != nil && user.Role != model.RoleStudent {
		return nil, pkgerrors.Validation("只有学生可以填写 NRE")
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// ────────────────────── 删除 ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, actor access.Actor) error {
	if !actor.IsAdmin() {
		return pkgerrors.Forbidden("只有管理员可以删除用户")
	}
	if id == actor.ID {
		return pkgerrors.Forbidden("不能删除自己")
	}
	if _, err := s.loadUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, actor access.Actor) (*dto.ResetPasswordResponse, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.Forbidden("只有管理员可以重置密码")
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── 批量导入学生 ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel 文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel 表头缺少必要列（姓名/邮箱）")
)

// ParseImportFile 解析导入 Excel 文件，列顺序不限
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析 Excel 文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["full_name"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		item := ImportUserRow{
			Row:      i + 1,
			FullName: cell(excelRows[i], "full_name"),
			Email:    cell(excelRows[i], "email"),
			NRE:      cell(excelRows[i], "nre"),
		}
		if item.FullName == "" && item.Email == "" && item.NRE == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名到列索引的映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"full_name": -1, "email": -1, "nre": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "姓名", "nombre", "full_name", "name":
			idx["full_name"] = i
		case "邮箱", "email", "correo":
			idx["email"] = i
		case "nre":
			idx["nre"] = i
		}
	}
	return idx
}

// ImportStudents 先逐行校验，再在一个事务中写入全部通过校验的行
func (s *userService) ImportStudents(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	type validatedRow struct {
		row      ImportUserRow
		password string
		hash     []byte
	}
	var valid []validatedRow
	seenEmail := map[string]bool{}
	seenNRE := map[string]bool{}

	fail := func(row int, format string, args ...interface{}) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: fmt.Sprintf(format, args...)})
	}

	for _, row := range rows {
		email := strings.ToLower(row.Email)
		if row.FullName == "" || email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if seenEmail[email] || (row.NRE != "" && seenNRE[row.NRE]) {
			fail(row.Row, "文件内存在重复的邮箱或 NRE")
			continue
		}
		var nre *string
		if row.NRE != "" {
			nre = &row.NRE
		}
		if err := s.checkUnique(ctx, "", email, nre); err != nil {
			if reason := pkgerrors.Reason(err); reason != "" {
				fail(row.Row, "%s", reason)
				continue
			}
			return nil, err
		}

		password, err := generateTempPassword(10)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}
		seenEmail[email] = true
		if row.NRE != "" {
			seenNRE[row.NRE] = true
		}
		row.Email = email
		valid = append(valid, validatedRow{row: row, password: password, hash: hash})
	}

	if len(valid) == 0 {
		return resp, nil
	}

	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		for _, vr := range valid {
			var nre *string
			if vr.row.NRE != "" {
				v := vr.row.NRE
				nre = &v
			}
			user := &model.User{
				FullName:     vr.row.FullName,
				Email:        vr.row.Email,
				PasswordHash: string(vr.hash),
				NRE:          nre,
				Role:         model.RoleStudent,
				Status:       model.UserStatusActive,
			}
			if err := txRepo.User.Create(ctx, user); err != nil {
				s.logger.Error("导入用户写入失败，事务回滚", zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, vr := range valid {
		resp.Success++
		resp.Created = append(resp.Created, dto.ImportedUser{Row: vr.row.Row, Email: vr.row.Email, TempPassword: vr.password})
	}
	s.logger.Info("批量导入学生完成", zap.Int("total", resp.Total), zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) loadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.NotFound("用户不存在")
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// checkUnique 校验邮箱与 NRE 未被其他用户占用，selfID 为正在修改的用户
func (s *userService) checkUnique(ctx context.Context, selfID, email string, nre *string) error {
	if email != "" {
		existing, err := s.repo.User.GetByEmail(ctx, email)
		if err == nil && existing.UserID != selfID {
			return pkgerrors.Conflict("邮箱 %s 已被使用", email)
		} else if err != nil && !isNotFound(err) {
			return err
		}
	}
	if nre != nil && *nre != "" {
		existing, err := s.repo.User.GetByNRE(ctx, *nre)
		if err == nil && existing.UserID != selfID {
			return pkgerrors.Conflict("NRE %s 已被使用", *nre)
		} else if err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

// ToUserResponse 将 model.User 转换为 dto.UserResponse
func ToUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.UserID,
		FullName:  user.FullName,
		Email:     user.Email,
		NRE:       user.NRE,
		Role:      user.Role,
		Phone:     user.Phone,
		Biography: user.Biography,
		Status:    user.Status,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func emptyToNil(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}
	result := make([]byte, length)

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
