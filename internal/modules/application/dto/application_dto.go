package dto

import (
	"mime/multipart"

	"anoa.com/jobportal/internal/entity"
)

// ResumeExtensions are the document types accepted as resumes.
var ResumeExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt"}

type ApplyInput struct {
	CoverLetter string
	// Resume is optional.
	Resume *multipart.FileHeader
}

type ApplicationView struct {
	entity.Application
	ResumeURL string `json:"resume_url,omitempty"`
}

type MyApplicationsResult struct {
	Applications      []ApplicationView `json:"applications"`
	TotalApplications int               `json:"total_applications"`
}
