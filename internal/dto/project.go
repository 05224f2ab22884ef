package dto

// ── 项目模块 DTO ──

// CreateProjectRequest 创建项目请求，日期格式 "2006-01-02"
type CreateProjectRequest struct {
	Title               string   `json:"title"                 binding:"required,min=3,max=500"`
	Description         string   `json:"description"           binding:"required"`
	Status              string   `json:"status"                binding:"omitempty,oneof=anteproject planning in_development under_review completed"`
	TutorID             string   `json:"tutor_id"              binding:"required,uuid"`
	StudentIDs          []string `json:"student_ids"           binding:"omitempty,dive,uuid"`
	StartDate           *string  `json:"start_date"`
	EstimatedEndDate    *string  `json:"estimated_end_date"`
	GithubRepositoryURL *string  `json:"github_repository_url" binding:"omitempty,url,max=500"`
	GithubMainBranch    *string  `json:"github_main_branch"    binding:"omitempty,max=100"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Title               *string   `json:"title"                 binding:"omitempty,min=3,max=500"`
	Description         *string   `json:"description"`
	Status              *string   `json:"status"                binding:"omitempty,oneof=anteproject planning in_development under_review completed"`
	TutorID             *string   `json:"tutor_id"              binding:"omitempty,uuid"`
	StudentIDs          *[]string `json:"student_ids"           binding:"omitempty,dive,uuid"`
	StartDate           *string   `json:"start_date"`
	EstimatedEndDate    *string   `json:"estimated_end_date"`
	ActualEndDate       *string   `json:"actual_end_date"`
	GithubRepositoryURL *string   `json:"github_repository_url" binding:"omitempty,url,max=500"`
	GithubMainBranch    *string   `json:"github_main_branch"    binding:"omitempty,max=100"`
}

// ProjectMemberRequest 添加/移除项目学生
type ProjectMemberRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// CreateMilestoneRequest 创建里程碑请求
type CreateMilestoneRequest struct {
	Title                string   `json:"title"                 binding:"required,min=1,max=255"`
	Description          string   `json:"description"           binding:"required"`
	PlannedDate          string   `json:"planned_date"          binding:"required"`
	MilestoneType        string   `json:"milestone_type"        binding:"omitempty,oneof=planning execution review final"`
	IsFromAnteproject    bool     `json:"is_from_anteproject"`
	ExpectedDeliverables []string `json:"expected_deliverables"`
}
