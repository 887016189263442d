package dto

import "anoa.com/jobportal/internal/entity"

const HomepageLimit = 9
const SimilarJobsLimit = 3

type SearchQuery struct {
	Title    string `form:"title" json:"title"`
	Company  string `form:"company" json:"company"`
	Location string `form:"location" json:"location"`
}

type CreateJobInput struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	CompanyName string `form:"company_name" json:"company_name" binding:"required,max=200"`
	Location    string `form:"location" json:"location" binding:"required,max=200"`
	Description string `form:"description" json:"description" binding:"required"`
}

type JobListResult struct {
	Jobs            []entity.Job `json:"jobs"`
	TotalJobs       int64        `json:"total_jobs"`
	SearchPerformed bool         `json:"search_performed"`
	SearchParams    SearchQuery  `json:"search_params"`
	UserAppliedJobs []uint       `json:"user_applied_jobs"`
}

type JobDetailResult struct {
	Job         *entity.Job  `json:"job"`
	SimilarJobs []entity.Job `json:"similar_jobs"`
	HasApplied  bool         `json:"has_applied"`
}
