package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

func setupTestEvaluationService(t *testing.T) (*fixture, *model.Anteproject, []model.AnteprojectEvaluationCriteria, EvaluationService) {
	f := newFixture(t)
	ante := NewAnteprojectService(f.repo, f.notifications, f.activity, zap.NewNop())
	a := createDraft(t, f, ante)

	ctx := context.Background()
	for i, name := range []string{"Originalidad", "Viabilidad", "Claridad"} {
		c := &model.AnteprojectEvaluationCriteria{
			Name:         name,
			Description:  name,
			MaxScore:     10,
			IsActive:     true,
			DisplayOrder: i + 1,
		}
		if err := f.m.criteria.UpsertByName(ctx, c); err != nil {
			t.Fatalf("创建评审标准失败: %v", err)
		}
	}
	criteria, _ := f.m.criteria.ListActive(ctx)
	return f, a, criteria, NewEvaluationService(f.repo, zap.NewNop())
}

func TestSaveEvaluations_UpsertIsIdempotent(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	ctx := context.Background()

	items := []dto.EvaluationItem{
		{CriteriaID: criteria[1].CriteriaID, Score: 6},
		{CriteriaID: criteria[0].CriteriaID, Score: 8},
	}
	if _, err := svc.SaveEvaluations(ctx, a.AnteprojectID, items, actorOf(f.tutor)); err != nil {
		t.Fatalf("首次评分失败: %v", err)
	}

	items[0].Score = 7.5
	list, err := svc.SaveEvaluations(ctx, a.AnteprojectID, items, actorOf(f.tutor))
	if err != nil {
		t.Fatalf("再次评分失败: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("同一 (预项目, 标准) 只应有一行，实际 %d 行", len(list))
	}
	if len(f.m.evaluations.rows) != 2 {
		t.Errorf("存储中期望 2 行，实际 %d", len(f.m.evaluations.rows))
	}
	// 按标准的 display_order 排序
	if list[0].CriteriaID != criteria[0].CriteriaID || list[1].Score != 7.5 {
		t.Errorf("评分结果顺序或分数不正确: %+v", list)
	}
}

func TestSaveEvaluations_LastDuplicateWins(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	items := []dto.EvaluationItem{
		{CriteriaID: criteria[0].CriteriaID, Score: 3},
		{CriteriaID: criteria[0].CriteriaID, Score: 9},
	}
	list, err := svc.SaveEvaluations(context.Background(), a.AnteprojectID, items, actorOf(f.admin))
	if err != nil {
		t.Fatalf("评分失败: %v", err)
	}
	if len(list) != 1 || list[0].Score != 9 {
		t.Errorf("期望 1 行分数 9，实际 %+v", list)
	}
}

func TestSaveEvaluations_StudentForbidden(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	items := []dto.EvaluationItem{{CriteriaID: criteria[0].CriteriaID, Score: 10}}

	_, err := svc.SaveEvaluations(context.Background(), a.AnteprojectID, items, actorOf(f.student))
	assertKind(t, err, pkgerrors.ErrForbidden)
	if len(f.m.evaluations.rows) != 0 {
		t.Error("无权评分时不应写入")
	}
}

func TestSaveEvaluations_UnknownCriteria(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	items := []dto.EvaluationItem{
		{CriteriaID: criteria[0].CriteriaID, Score: 5},
		{CriteriaID: "11111111-1111-1111-1111-111111111111", Score: 5},
	}
	_, err := svc.SaveEvaluations(context.Background(), a.AnteprojectID, items, actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrNotFound)
	if len(f.m.evaluations.rows) != 0 {
		t.Error("存在未知标准时整批不应写入")
	}
}

func TestSaveEvaluations_ScoreBounds(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	ctx := context.Background()

	for _, score := range []float64{-1, 10.5} {
		items := []dto.EvaluationItem{{CriteriaID: criteria[0].CriteriaID, Score: score}}
		_, err := svc.SaveEvaluations(ctx, a.AnteprojectID, items, actorOf(f.tutor))
		assertKind(t, err, pkgerrors.ErrValidation)
	}

	_, err := svc.SaveEvaluations(ctx, a.AnteprojectID, nil, actorOf(f.tutor))
	assertKind(t, err, pkgerrors.ErrValidation)
}

func TestListEvaluations_Visibility(t *testing.T) {
	f, a, criteria, svc := setupTestEvaluationService(t)
	ctx := context.Background()
	items := []dto.EvaluationItem{{CriteriaID: criteria[2].CriteriaID, Score: 4}}
	if _, err := svc.SaveEvaluations(ctx, a.AnteprojectID, items, actorOf(f.tutor)); err != nil {
		t.Fatalf("评分失败: %v", err)
	}

	list, err := svc.ListByAnteproject(ctx, a.AnteprojectID, actorOf(f.student))
	if err != nil || len(list) != 1 {
		t.Fatalf("学生应可查看自己预项目的评分: %v", err)
	}
	_, err = svc.ListByAnteproject(ctx, a.AnteprojectID, actorOf(f.outsider))
	assertKind(t, err, pkgerrors.ErrForbidden)
}

func TestListCriteria_ActiveOnly(t *testing.T) {
	f, _, _, svc := setupTestEvaluationService(t)
	_ = f.m.criteria.UpsertByName(context.Background(), &model.AnteprojectEvaluationCriteria{
		Name: "Obsoleto", Description: "x", MaxScore: 10, IsActive: false, DisplayOrder: 9,
	})

	list, err := svc.ListCriteria(context.Background())
	if err != nil {
		t.Fatalf("查询标准失败: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("期望 3 条启用的标准，实际 %d", len(list))
	}
}
