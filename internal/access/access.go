// Package access 计算操作者相对于某个业务实体（预项目、项目、任务）的身份标记，
// 并把身份标记映射为具体能力。所有函数均为纯函数，不访问存储。
package access

import "proyecto-fct/backend/internal/model"

// Actor 已认证的操作者
type Actor struct {
	ID   string
	Role string
}

// IsAdmin 操作者是否为管理员
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// IsStaff 操作者角色为导师或管理员（与具体实体无关）
func (a Actor) IsStaff() bool { return a.Role == model.RoleAdmin || a.Role == model.RoleTutor }

// Flags 操作者相对于实体的身份标记
type Flags struct {
	IsAdmin    bool
	IsTutor    bool
	IsStudent  bool
	IsCreator  bool
	IsAssignee bool
}

// Capability 可执行的操作
type Capability int

const (
	// CapView 查看实体
	CapView Capability = iota
	// CapEditDraft 编辑预项目/项目的普通字段
	CapEditDraft
	// CapReassign 更换导师或学生名单
	CapReassign
	// CapSubmit 提交预项目
	CapSubmit
	// CapReview 评审类流转（review/approve/reject/schedule/complete）
	CapReview
	// CapManage 管理项目下的任务、成员、里程碑
	CapManage
	// CapEditTask 修改任务任意字段
	CapEditTask
	// CapEditTaskStatus 仅修改任务状态
	CapEditTaskStatus
	// CapDeleteTask 删除任务
	CapDeleteTask
)

// Has 判断身份标记是否具备能力
func (f Flags) Has(c Capability) bool {
	staff := f.IsAdmin || f.IsTutor
	switch c {
	case CapView, CapEditDraft:
		return staff || f.IsStudent
	case CapReassign, CapReview, CapManage:
		return staff
	case CapSubmit:
		return f.IsStudent
	case CapEditTask, CapDeleteTask:
		return staff || f.IsCreator
	case CapEditTaskStatus:
		return staff || f.IsCreator || f.IsAssignee
	}
	return false
}

// None 没有任何身份
func (f Flags) None() bool {
	return !f.IsAdmin && !f.IsTutor && !f.IsStudent && !f.IsCreator && !f.IsAssignee
}

// ForAnteproject 计算操作者相对于预项目的身份
// 导师或学生关联未加载时相应标记为 false
func ForAnteproject(a *model.Anteproject, actor Actor) Flags {
	if a == nil {
		return Flags{}
	}
	return Flags{
		IsAdmin:   actor.IsAdmin(),
		IsTutor:   isUser(a.Tutor, actor.ID),
		IsStudent: containsUser(a.Students, actor.ID),
	}
}

// ForProject 计算操作者相对于项目的身份
func ForProject(p *model.Project, actor Actor) Flags {
	if p == nil {
		return Flags{}
	}
	return Flags{
		IsAdmin:   actor.IsAdmin(),
		IsTutor:   isUser(p.Tutor, actor.ID),
		IsStudent: containsUser(p.Students, actor.ID),
	}
}

// ForTask 计算操作者相对于任务的身份，项目身份决定导师与学生标记
func ForTask(t *model.Task, p *model.Project, actor Actor) Flags {
	if t == nil || p == nil {
		return Flags{}
	}
	f := ForProject(p, actor)
	f.IsCreator = actor.ID != "" && t.CreatedByID == actor.ID
	f.IsAssignee = containsUser(t.Assignees, actor.ID)
	return f
}

func isUser(u *model.User, id string) bool {
	return u != nil && id != "" && u.UserID == id
}

func containsUser(users []model.User, id string) bool {
	if id == "" {
		return false
	}
	for i := range users {
		if users[i].UserID == id {
			return true
		}
	}
	return false
}
