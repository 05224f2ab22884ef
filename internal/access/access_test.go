package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"proyecto-fct/backend/internal/model"
)

func sampleAnteproject() *model.Anteproject {
	return &model.Anteproject{
		AnteprojectID: "a-1",
		TutorID:       "tutor-1",
		Tutor:         &model.User{UserID: "tutor-1", Role: model.RoleTutor},
		Students:      []model.User{{UserID: "stu-1", Role: model.RoleStudent}},
	}
}

func TestForAnteproject(t *testing.T) {
	a := sampleAnteproject()

	tests := []struct {
		name  string
		actor Actor
		want  Flags
	}{
		{"管理员", Actor{ID: "admin-1", Role: model.RoleAdmin}, Flags{IsAdmin: true}},
		{"本项目导师", Actor{ID: "tutor-1", Role: model.RoleTutor}, Flags{IsTutor: true}},
		{"其他导师", Actor{ID: "tutor-2", Role: model.RoleTutor}, Flags{}},
		{"成员学生", Actor{ID: "stu-1", Role: model.RoleStudent}, Flags{IsStudent: true}},
		{"非成员学生", Actor{ID: "stu-2", Role: model.RoleStudent}, Flags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForAnteproject(a, tt.actor))
		})
	}
}

func TestForAnteproject_UnloadedRelationsFailClosed(t *testing.T) {
	a := &model.Anteproject{AnteprojectID: "a-1", TutorID: "tutor-1"}

	f := ForAnteproject(a, Actor{ID: "tutor-1", Role: model.RoleTutor})
	assert.False(t, f.IsTutor, "未加载导师关联时不得凭 TutorID 判定导师身份")
	assert.False(t, f.Has(CapView))

	assert.Equal(t, Flags{}, ForAnteproject(nil, Actor{ID: "x", Role: model.RoleAdmin}))
}

func TestForTask(t *testing.T) {
	p := &model.Project{
		ProjectID: "p-1",
		Tutor:     &model.User{UserID: "tutor-1"},
		Students:  []model.User{{UserID: "stu-1"}, {UserID: "stu-2"}},
	}
	task := &model.Task{
		TaskID:      "t-1",
		CreatedByID: "stu-1",
		Assignees:   []model.User{{UserID: "stu-2"}},
	}

	creator := ForTask(task, p, Actor{ID: "stu-1", Role: model.RoleStudent})
	assert.True(t, creator.IsCreator)
	assert.True(t, creator.IsStudent)
	assert.True(t, creator.Has(CapDeleteTask))

	assignee := ForTask(task, p, Actor{ID: "stu-2", Role: model.RoleStudent})
	assert.True(t, assignee.IsAssignee)
	assert.True(t, assignee.Has(CapEditTaskStatus))
	assert.False(t, assignee.Has(CapEditTask))
	assert.False(t, assignee.Has(CapDeleteTask))

	assert.Equal(t, Flags{}, ForTask(task, nil, Actor{ID: "stu-1"}))
	assert.False(t, ForTask(task, p, Actor{}).IsCreator)
}

func TestFlagsHas(t *testing.T) {
	student := Flags{IsStudent: true}
	assert.True(t, student.Has(CapView))
	assert.True(t, student.Has(CapSubmit))
	assert.False(t, student.Has(CapReview))
	assert.False(t, student.Has(CapReassign))
	assert.False(t, student.Has(CapManage))

	tutor := Flags{IsTutor: true}
	assert.True(t, tutor.Has(CapReview))
	assert.False(t, tutor.Has(CapSubmit))

	admin := Flags{IsAdmin: true}
	assert.True(t, admin.Has(CapManage))
	assert.False(t, admin.Has(CapSubmit))

	assert.True(t, Flags{}.None())
	assert.False(t, Flags{}.Has(CapView))
	assert.False(t, Flags{IsAdmin: true}.Has(Capability(99)))
}

func TestActor(t *testing.T) {
	assert.True(t, Actor{Role: model.RoleAdmin}.IsAdmin())
	assert.True(t, Actor{Role: model.RoleTutor}.IsStaff())
	assert.False(t, Actor{Role: model.RoleStudent}.IsStaff())
}
