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

func TestUniqueApplicationPerJob(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	seeker := testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)
	job := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Remote", time.Now())

	require.NoError(t, repo.Create(ctx, &entity.Application{JobID: job.ID, ApplicantID: seeker.ID, CoverLetter: "one"}))
	err := repo.Create(ctx, &entity.Application{JobID: job.ID, ApplicantID: seeker.ID, CoverLetter: "two"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := repo.Exists(ctx, job.ID, seeker.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	ids, err := repo.AppliedJobIDs(ctx, poster.ID)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSummaryAndCounts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	a := testutil.CreateUser(t, db, "alice", entity.RoleApplicant)
	b := testutil.CreateUser(t, db, "bob", entity.RoleApplicant)
	busy := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Remote", time.Now())
	quiet := testutil.CreateJob(t, db, poster, "Designer", "Acme", "Remote", time.Now())

	testutil.CreateApplication(t, db, busy, a, "a")
	latest := testutil.CreateApplication(t, db, busy, b, "b")

	counts, err := repo.CountByJobs(ctx, []uint{busy.ID, quiet.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[busy.ID])
	assert.Zero(t, counts[quiet.ID])

	summary, err := repo.Summary(ctx, busy.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Total)
	require.NotNil(t, summary.Latest)
	assert.WithinDuration(t, latest.AppliedAt, *summary.Latest, time.Second)

	summary, err = repo.Summary(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Nil(t, summary.Latest)

	apps, err := repo.FindByJob(ctx, busy.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "bob", apps[0].Applicant.Username)
}

func TestAdminSearch(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	alice := testutil.CreateUser(t, db, "alice", entity.RoleApplicant)
	bob := testutil.CreateUser(t, db, "bob", entity.RoleApplicant)
	goJob := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Remote", time.Now())
	design := testutil.CreateJob(t, db, poster, "Designer", "Globex", "Remote", time.Now())

	testutil.CreateApplication(t, db, goJob, alice, "a")
	testutil.CreateApplication(t, db, design, bob, "b")

	apps, err := repo.AdminSearch(ctx, AdminFilter{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, goJob.ID, apps[0].JobID)

	apps, err = repo.AdminSearch(ctx, AdminFilter{Company: "Globex"})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Designer", apps[0].Job.Title)

	future := time.Now().Add(time.Hour)
	apps, err = repo.AdminSearch(ctx, AdminFilter{DateFrom: &future})
	require.NoError(t, err)
	assert.Empty(t, apps)

	require.NoError(t, repo.Delete(ctx, firstApplicationID(t, repo)))
	assert.ErrorIs(t, repo.Delete(ctx, 999), gorm.ErrRecordNotFound)
}

func firstApplicationID(t *testing.T, repo ApplicationRepository) uint {
	apps, err := repo.AdminSearch(context.Background(), AdminFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, apps)
	return apps[0].ID
}
