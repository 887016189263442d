package bootstrap

import (
	"errors"
	"log"
	"time"

	"anoa.com/jobportal/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const samplePassword = "testpass123"

type sampleJob struct {
	Title       string
	CompanyName string
	Location    string
	Description string
}

var sampleJobs = []sampleJob{
	{
		Title:       "Senior Software Engineer",
		CompanyName: "TechCorp Solutions",
		Location:    "San Francisco, CA",
		Description: "We are looking for a Senior Software Engineer to join our growing team. You will be responsible for developing high-quality software solutions, mentoring junior developers, and collaborating with cross-functional teams. Requirements: 5+ years of experience in Python, JavaScript, and cloud technologies.",
	},
	{
		Title:       "Frontend Developer",
		CompanyName: "Digital Innovations Inc",
		Location:    "New York, NY",
		Description: "Join our creative team as a Frontend Developer. You will build beautiful, responsive user interfaces using React, Vue.js, and modern CSS. We value creativity, attention to detail, and user experience expertise.",
	},
	{
		Title:       "Data Scientist",
		CompanyName: "Analytics Pro",
		Location:    "Austin, TX",
		Description: "We are seeking a Data Scientist to help us extract insights from large datasets. You will work with machine learning models, statistical analysis, and data visualization. Experience with Python, R, and SQL required.",
	},
	{
		Title:       "Product Manager",
		CompanyName: "StartupXYZ",
		Location:    "Seattle, WA",
		Description: "Lead product strategy and development for our innovative SaaS platform. You will work closely with engineering, design, and marketing teams to deliver exceptional user experiences. 3+ years of product management experience required.",
	},
	{
		Title:       "DevOps Engineer",
		CompanyName: "Cloud Systems Ltd",
		Location:    "Remote",
		Description: "Help us build and maintain our cloud infrastructure. You will work with AWS, Docker, Kubernetes, and CI/CD pipelines. We need someone who is passionate about automation and scalability.",
	},
	{
		Title:       "UX/UI Designer",
		CompanyName: "Creative Studios",
		Location:    "Los Angeles, CA",
		Description: "Create stunning user experiences and beautiful interfaces. You will work on web and mobile applications, conduct user research, and collaborate with developers. Proficiency in Figma, Sketch, and Adobe Creative Suite required.",
	},
	{
		Title:       "Marketing Specialist",
		CompanyName: "Growth Marketing Co",
		Location:    "Chicago, IL",
		Description: "Drive our digital marketing efforts across multiple channels. You will manage social media campaigns, email marketing, and content creation. Experience with Google Analytics, Facebook Ads, and email marketing platforms preferred.",
	},
	{
		Title:       "Sales Representative",
		CompanyName: "Enterprise Sales Inc",
		Location:    "Boston, MA",
		Description: "Join our sales team and help us grow our enterprise client base. You will be responsible for prospecting, qualifying leads, and closing deals. Strong communication skills and sales experience required.",
	},
	{
		Title:       "Customer Success Manager",
		CompanyName: "SaaS Solutions",
		Location:    "Denver, CO",
		Description: "Ensure our customers achieve their goals with our platform. You will onboard new customers, provide training, and maintain strong relationships. Excellent communication and problem-solving skills required.",
	},
}

var sampleCoverLetters = []string{
	"I am excited to apply for this position. With my background in software development and passion for creating innovative solutions, I believe I would be a great fit for your team. I have experience with modern technologies and a track record of delivering high-quality results.",
	"Thank you for considering my application. I am particularly interested in this role because it aligns perfectly with my career goals and technical expertise. I am confident that my skills and experience would make me a valuable addition to your organization.",
	"I am writing to express my strong interest in this position. My experience in this field, combined with my enthusiasm for learning and growth, makes me an ideal candidate. I am excited about the opportunity to contribute to your team's success.",
	"I am thrilled to apply for this opportunity. This role represents exactly the type of challenge I am looking for in my next career move. I am confident that my background and skills would enable me to make immediate contributions to your organization.",
	"I am very interested in this position and believe my qualifications make me an excellent candidate. I am particularly drawn to your company's mission and values, and I am excited about the opportunity to grow with your organization.",
}

// SeedSampleJobs creates the sample employee and the nine sample jobs. Jobs are
// matched on title and company, so running it twice creates nothing new.
func SeedSampleJobs(db *gorm.DB) ([]entity.Job, int, error) {
	employee, err := getOrCreateUser(db, "test_employee", "employee@test.com", "Test", "Employee", entity.RoleEmployee)
	if err != nil {
		return nil, 0, err
	}

	created := 0
	jobs := make([]entity.Job, 0, len(sampleJobs))
	base := time.Now().Add(-time.Duration(len(sampleJobs)) * time.Minute)

	for i, sj := range sampleJobs {
		var job entity.Job
		err := db.Where("title = ? AND company_name = ?", sj.Title, sj.CompanyName).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			job = entity.Job{
				Title:       sj.Title,
				CompanyName: sj.CompanyName,
				Location:    sj.Location,
				Description: sj.Description,
				PostedByID:  employee.ID,
				CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			}
			if err := db.Create(&job).Error; err != nil {
				return nil, created, err
			}
			created++
			log.Printf("Created job: %s at %s", job.Title, job.CompanyName)
		} else if err != nil {
			return nil, created, err
		}
		jobs = append(jobs, job)
	}

	return jobs, created, nil
}

// SeedSampleApplications creates the sample applicant and applies to the first five jobs.
func SeedSampleApplications(db *gorm.DB) (int, error) {
	applicant, err := getOrCreateUser(db, "test_applicant", "applicant@test.com", "Test", "Applicant", entity.RoleApplicant)
	if err != nil {
		return 0, err
	}

	var jobs []entity.Job
	if err := db.Order("id ASC").Limit(5).Find(&jobs).Error; err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		log.Println("No jobs found. Seed sample jobs first.")
		return 0, nil
	}

	created := 0
	for i, job := range jobs {
		var count int64
		if err := db.Model(&entity.Application{}).
			Where("applicant_id = ? AND job_id = ?", applicant.ID, job.ID).
			Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		app := entity.Application{
			JobID:       job.ID,
			ApplicantID: applicant.ID,
			CoverLetter: sampleCoverLetters[i%len(sampleCoverLetters)],
		}
		if err := db.Create(&app).Error; err != nil {
			return created, err
		}
		created++
		log.Printf("Created application: %s applied to %s at %s", applicant.Username, job.Title, job.CompanyName)
	}

	return created, nil
}

func getOrCreateUser(db *gorm.DB, username, email, first, last, role string) (*entity.User, error) {
	var user entity.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(samplePassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = entity.User{
		Username:     username,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&entity.Profile{UserID: user.ID, Role: role}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created test user: %s", user.Username)
	return &user, nil
}
