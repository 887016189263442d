// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"anoa.com/jobportal/internal/bootstrap"
	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/pkg/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const Password = "correct-horse-battery"

// NewDB returns a migrated in-memory database that lives as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active user with a profile. The password is Password.
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *entity.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	profile := &entity.Profile{UserID: user.ID, Role: role}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile

	return user
}

// CreateStaff inserts a staff user with the employee role.
func CreateStaff(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()

	user := CreateUser(t, db, username, entity.RoleEmployee)
	require.NoError(t, db.Model(user).Update("is_staff", true).Error)
	user.IsStaff = true
	return user
}

// CreateJob inserts a job posted by poster. created sets the creation time, so
// ordering in tests is deterministic.
func CreateJob(t *testing.T, db *gorm.DB, poster *entity.User, title, company, location string, created time.Time) *entity.Job {
	t.Helper()

	job := &entity.Job{
		Title:       title,
		CompanyName: company,
		Location:    location,
		Description: title + " at " + company,
		PostedByID:  poster.ID,
		CreatedAt:   created,
	}
	require.NoError(t, db.Omit("PostedBy", "Applications").Create(job).Error)
	return job
}

func CreateApplication(t *testing.T, db *gorm.DB, job *entity.Job, applicant *entity.User, coverLetter string) *entity.Application {
	t.Helper()

	app := &entity.Application{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		CoverLetter: coverLetter,
	}
	require.NoError(t, db.Omit("Job", "Applicant").Create(app).Error)
	return app
}
