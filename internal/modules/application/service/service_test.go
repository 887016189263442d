package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/modules/application/dto"
	appRepo "anoa.com/jobportal/internal/modules/application/repository"
	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	"anoa.com/jobportal/internal/testutil"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := folder + "/" + fileName
	m.files[ref] = data
	return ref, nil
}

func (m *memoryStorage) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	return nil
}

func (m *memoryStorage) URL(ref string) string { return "/media/" + ref }

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("resume", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["resume"][0]
}

type fixture struct {
	db     *gorm.DB
	svc    ApplicationService
	store  *memoryStorage
	job    *entity.Job
	seeker *entity.User
	poster *entity.User
}

func setup(t *testing.T, opts Options) fixture {
	db := testutil.NewDB(t)
	store := newMemoryStorage()
	svc := NewApplicationService(appRepo.NewApplicationRepository(db), jobRepo.NewJobRepository(db), nil, store, nil, opts)

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	seeker := testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)
	job := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Remote", time.Now())

	return fixture{db: db, svc: svc, store: store, job: job, seeker: seeker, poster: poster}
}

func countApplications(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&entity.Application{}).Count(&n).Error)
	return n
}

func TestApplyCreatesOneApplication(t *testing.T) {
	f := setup(t, Options{})
	ctx := context.Background()

	app, job, err := f.svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{
		CoverLetter: "  I'm excited about R&D roles where 3 < 5.\n",
		Resume:      fileHeader(t, "cv.pdf", []byte("%PDF-1.4")),
	})
	require.NoError(t, err)
	assert.Equal(t, "Go Developer", job.Title)

	// stored as typed, only trimmed
	var stored entity.Application
	require.NoError(t, f.db.First(&stored, app.ID).Error)
	assert.Equal(t, "I'm excited about R&D roles where 3 < 5.", stored.CoverLetter)
	assert.Equal(t, "resumes/cv.pdf", app.Resume)
	assert.Contains(t, f.store.files, "resumes/cv.pdf")

	_, _, err = f.svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{CoverLetter: "again"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.EqualValues(t, 1, countApplications(t, f.db))

	mine, err := f.svc.MyApplications(ctx, f.seeker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.TotalApplications)
	assert.Equal(t, "/media/resumes/cv.pdf", mine.Applications[0].ResumeURL)
	require.NotNil(t, mine.Applications[0].Job)
	assert.Equal(t, f.job.ID, mine.Applications[0].Job.ID)
}

func TestApplyRejectsBlankCoverLetter(t *testing.T) {
	f := setup(t, Options{})

	for _, cover := range []string{"", "   \n\t", "<p> </p>"} {
		_, job, err := f.svc.Apply(context.Background(), f.job.ID, f.seeker, dto.ApplyInput{CoverLetter: cover})
		assert.ErrorIs(t, err, ErrCoverLetterRequired)
		assert.NotNil(t, job)
	}
	assert.Zero(t, countApplications(t, f.db))
}

func TestApplyEligibility(t *testing.T) {
	f := setup(t, Options{})
	ctx := context.Background()

	_, _, err := f.svc.Apply(ctx, f.job.ID, f.poster, dto.ApplyInput{CoverLetter: "hi"})
	assert.ErrorIs(t, err, ErrNotApplicant)

	_, _, err = f.svc.Apply(ctx, f.job.ID, nil, dto.ApplyInput{CoverLetter: "hi"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = f.svc.Apply(ctx, 424242, f.seeker, dto.ApplyInput{CoverLetter: "hi"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Zero(t, countApplications(t, f.db))
}

func TestApplyValidatesResume(t *testing.T) {
	f := setup(t, Options{MaxResumeBytes: 16})
	ctx := context.Background()

	_, _, err := f.svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{
		CoverLetter: "hi",
		Resume:      fileHeader(t, "cv.exe", []byte("MZ")),
	})
	assert.ErrorIs(t, err, ErrResumeTypeNotAllowed)

	_, _, err = f.svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{
		CoverLetter: "hi",
		Resume:      fileHeader(t, "cv.PDF", []byte(strings.Repeat("x", 64))),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Empty(t, f.store.files)
	assert.Zero(t, countApplications(t, f.db))
}

func TestAuthorizeResume(t *testing.T) {
	f := setup(t, Options{})
	ctx := context.Background()

	_, _, err := f.svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{
		CoverLetter: "hi",
		Resume:      fileHeader(t, "cv.pdf", []byte("%PDF")),
	})
	require.NoError(t, err)

	stranger := testutil.CreateUser(t, f.db, "stranger", entity.RoleApplicant)
	staff := testutil.CreateStaff(t, f.db, "staff")

	assert.NoError(t, f.svc.AuthorizeResume(ctx, f.seeker, "resumes/cv.pdf"))
	assert.NoError(t, f.svc.AuthorizeResume(ctx, f.poster, "resumes/cv.pdf"))
	assert.NoError(t, f.svc.AuthorizeResume(ctx, staff, "resumes/cv.pdf"))
	assert.ErrorIs(t, f.svc.AuthorizeResume(ctx, stranger, "resumes/cv.pdf"), apperror.ErrForbidden)
	assert.ErrorIs(t, f.svc.AuthorizeResume(ctx, nil, "resumes/cv.pdf"), apperror.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.AuthorizeResume(ctx, staff, "resumes/other.pdf"), apperror.ErrNotFound)
}

func TestApplyCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := setup(t, Options{})
	svc := NewApplicationService(appRepo.NewApplicationRepository(f.db), jobRepo.NewJobRepository(f.db), nil, f.store, ratelimiter.New(rdb), Options{Cooldown: 30 * time.Second})
	other := testutil.CreateJob(t, f.db, f.poster, "Rust Developer", "Acme", "Remote", time.Now())
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, f.job.ID, f.seeker, dto.ApplyInput{CoverLetter: "first"})
	require.NoError(t, err)

	_, _, err = svc.Apply(ctx, other.ID, f.seeker, dto.ApplyInput{CoverLetter: "second"})
	require.ErrorIs(t, err, ErrApplyTooSoon)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, "You are submitting applications too quickly. Please wait 30 seconds.", err.Error())
	assert.EqualValues(t, 1, countApplications(t, f.db))

	mr.FastForward(31 * time.Second)
	_, _, err = svc.Apply(ctx, other.ID, f.seeker, dto.ApplyInput{CoverLetter: "second"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, countApplications(t, f.db))
}
