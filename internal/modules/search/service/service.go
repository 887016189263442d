package service

import (
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	JobsIndex      = "jobs"
	signingKeyName = "JobSearchTokenSigner"
	reindexBatch   = 500
)

type SearchService interface {
	IndexJob(job *entity.Job) error
	DeleteJob(id uint) error
	Reindex(jobs []entity.Job) (int, error)
	GenerateSearchToken() (string, error)
}

type meiliSearchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *meiliSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign job search tenant tokens",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{JobsIndex},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"company_name", "location", "posted_by"}
	if _, err := s.client.Index(JobsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update jobs filterable attributes: %v", err)
	}

	sortable := []string{"created_at", "views"}
	if _, err := s.client.Index(JobsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update jobs sortable attributes: %v", err)
	}

	searchable := []string{"title", "company_name", "location", "description"}
	if _, err := s.client.Index(JobsIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update jobs searchable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliJobDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	PostedBy    string `json:"posted_by"`
	Views       int    `json:"views"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *meiliSearchService) toDoc(job *entity.Job) meiliJobDoc {
	return meiliJobDoc{
		ID:          strconv.FormatUint(uint64(job.ID), 10),
		Title:       job.Title,
		CompanyName: job.CompanyName,
		Location:    job.Location,
		Description: CleanText(s.sanitizer, job.Description),
		PostedBy:    job.PostedByID.String(),
		Views:       job.Views,
		CreatedAt:   job.CreatedAt.Unix(),
	}
}

// CleanText strips markup for indexing, keeping block boundaries as spaces.
func CleanText(policy *bluemonday.Policy, content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</li>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(policy.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexJob(job *entity.Job) error {
	task, err := s.client.Index(JobsIndex).AddDocuments([]meiliJobDoc{s.toDoc(job)}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed job %d, task id: %d", job.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteJob(id uint) error {
	_, err := s.client.Index(JobsIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

// Reindex upserts every job in batches and returns how many documents were sent.
func (s *meiliSearchService) Reindex(jobs []entity.Job) (int, error) {
	sent := 0
	for start := 0; start < len(jobs); start += reindexBatch {
		end := min(start+reindexBatch, len(jobs))

		docs := make([]meiliJobDoc, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, s.toDoc(&jobs[i]))
		}

		if _, err := s.client.Index(JobsIndex).AddDocuments(docs, strPtr("id")); err != nil {
			return sent, fmt.Errorf("reindex batch %d-%d: %w", start, end, err)
		}
		sent += len(docs)
	}
	return sent, nil
}

// GenerateSearchToken returns a tenant token limited to searching the jobs index.
func (s *meiliSearchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		JobsIndex: map[string]any{},
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func strPtr(s string) *string {
	return &s
}
