package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func titles(jobs []entity.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Title)
	}
	return out
}

func TestSearchFiltersAreConjunctiveAndCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateJob(t, db, poster, "Senior Go Developer", "Acme", "Jakarta", base)
	testutil.CreateJob(t, db, poster, "Go Developer", "Globex", "Bandung", base.Add(time.Hour))
	testutil.CreateJob(t, db, poster, "Data Analyst", "Acme", "Jakarta", base.Add(2*time.Hour))

	jobs, err := repo.Search(ctx, JobFilter{Title: "go dev"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Developer", "Senior Go Developer"}, titles(jobs))

	jobs, err = repo.Search(ctx, JobFilter{Title: "DEVELOPER", Location: "jakarta"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Senior Go Developer"}, titles(jobs))

	count, err := repo.Count(ctx, JobFilter{Company: "acme"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	jobs, err = repo.Search(ctx, JobFilter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Analyst", "Go Developer"}, titles(jobs))
}

func TestSearchEscapesWildcards(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewJobRepository(db)

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	testutil.CreateJob(t, db, poster, "100% Remote Engineer", "Acme", "Remote", time.Now())
	testutil.CreateJob(t, db, poster, "Office Engineer", "Acme", "Jakarta", time.Now())

	jobs, err := repo.Search(context.Background(), JobFilter{Title: "%"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Remote Engineer"}, titles(jobs))

	jobs, err = repo.Search(context.Background(), JobFilter{Title: "_ffice"}, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestFindSimilar(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	current := testutil.CreateJob(t, db, poster, "Data Scientist", "Acme", "Jakarta", base)
	testutil.CreateJob(t, db, poster, "Backend Engineer", "Acme", "Jakarta", base.Add(time.Hour))
	testutil.CreateJob(t, db, poster, "Senior data engineer", "Globex", "Bandung", base.Add(2*time.Hour))
	testutil.CreateJob(t, db, poster, "Designer", "Initech", "Surabaya", base.Add(3*time.Hour))

	jobs, err := repo.FindSimilar(ctx, current, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Senior data engineer", "Backend Engineer"}, titles(jobs))

	jobs, err = repo.FindSimilar(ctx, current, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestUpdateAddViewsDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	job := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Jakarta", time.Now())

	job.Title = "Staff Go Developer"
	require.NoError(t, repo.Update(ctx, job))
	require.NoError(t, repo.AddViews(ctx, job.ID, 4))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staff Go Developer", found.Title)
	assert.Equal(t, 4, found.Views)
	require.NotNil(t, found.PostedBy)
	assert.Equal(t, "poster", found.PostedBy.Username)

	require.NoError(t, repo.Delete(ctx, job.ID))
	assert.ErrorIs(t, repo.Delete(ctx, job.ID), gorm.ErrRecordNotFound)
}
