package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// defenseDuration 日历中答辩事件的默认时长
const defenseDuration = time.Hour

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportTaskBoard 导出项目看板为 Excel，每个状态一个 Sheet
	ExportTaskBoard(ctx context.Context, projectID string, actor access.Actor) (*bytes.Buffer, string, error)
	// ExportDefenseCalendar 导出操作者可见的已安排答辩为 iCalendar
	ExportDefenseCalendar(ctx context.Context, actor access.Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// 看板 Sheet 名称
var boardSheetNames = map[string]string{
	model.TaskStatusPending:     "Pendiente",
	model.TaskStatusInProgress:  "En progreso",
	model.TaskStatusUnderReview: "En revisión",
	model.TaskStatusCompleted:   "Completada",
}

// ═══════════════════════════════════════════════════════════
// ExportTaskBoard 导出看板为 Excel
// ═══════════════════════════════════════════════════════════
//
// 每个 Sheet 第一行为表头，其后按看板位置升序逐行列出任务。

func (s *exportService) ExportTaskBoard(ctx context.Context, projectID string, actor access.Actor) (*bytes.Buffer, string, error) {
	p, _, err := loadProject(ctx, s.repo, projectID, actor)
	if err != nil {
		return nil, "", err
	}
	tasks, err := s.repo.Task.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询任务失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, "", err
	}
	board := groupByStatus(tasks)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	headers := []string{"#", "Título", "Prioridad", "Complejidad", "Asignados", "Fecha límite", "Horas estimadas"}

	for i, status := range model.TaskStatuses {
		sheet := boardSheetNames[status]
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}

		f.SetColWidth(sheet, "A", "A", 6)
		f.SetColWidth(sheet, "B", "B", 40)
		f.SetColWidth(sheet, "C", "D", 14)
		f.SetColWidth(sheet, "E", "E", 36)
		f.SetColWidth(sheet, "F", "G", 16)

		for c, h := range headers {
			f.SetCellValue(sheet, cell(colName(c), 1), h)
		}
		f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)

		for r, t := range board[status] {
			row := r + 2
			f.SetCellValue(sheet, cell("A", row), t.KanbanPosition)
			f.SetCellValue(sheet, cell("B", row), t.Title)
			f.SetCellValue(sheet, cell("C", row), t.Priority)
			f.SetCellValue(sheet, cell("D", row), t.Complexity)
			f.SetCellValue(sheet, cell("E", row), assigneeNames(t.Assignees))
			if t.DueDate != nil {
				f.SetCellValue(sheet, cell("F", row), t.DueDate.Format(dateLayout))
			}
			if t.EstimatedHours != nil {
				f.SetCellValue(sheet, cell("G", row), *t.EstimatedHours)
			}
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("tablero_%s.xlsx", p.ProjectID)
	return buf, filename, nil
}

func assigneeNames(users []model.User) string {
	var buf bytes.Buffer
	for i, u := range users {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(u.FullName)
	}
	return buf.String()
}

// ═══════════════════════════════════════════════════════════
// ExportDefenseCalendar 导出答辩日历
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportDefenseCalendar(ctx context.Context, actor access.Actor) (*bytes.Buffer, string, error) {
	filter := repository.AnteprojectFilter{Status: model.AnteprojectDefenseScheduled}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleTutor:
		filter.TutorID = actor.ID
	case model.RoleStudent:
		filter.StudentID = actor.ID
	default:
		return nil, "", pkgerrors.Forbidden("无权导出答辩日历")
	}

	list, err := s.repo.Anteproject.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询答辩安排失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//proyecto-fct//defensas//ES")

	now := time.Now().UTC()
	for _, a := range list {
		if a.DefenseDate == nil {
			continue
		}
		ev := cal.AddEvent(a.AnteprojectID + "@proyecto-fct")
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(a.CreatedAt)
		ev.SetModifiedAt(a.UpdatedAt)
		ev.SetStartAt(a.DefenseDate.UTC())
		ev.SetEndAt(a.DefenseDate.UTC().Add(defenseDuration))
		ev.SetSummary("Defensa: " + a.Title)
		if a.DefenseLocation != nil {
			ev.SetLocation(*a.DefenseLocation)
		}
		ev.SetDescription(defenseDescription(&a))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "defensas.ics", nil
}

func defenseDescription(a *model.Anteproject) string {
	var buf bytes.Buffer
	if a.Tutor != nil {
		buf.WriteString("Tutor: " + a.Tutor.FullName + "\n")
	}
	for _, st := range a.Students {
		buf.WriteString("Alumno: " + st.FullName + "\n")
	}
	buf.WriteString("Curso: " + a.AcademicYear)
	return buf.String()
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

