package main

import (
	"flag"
	"log"

	"anoa.com/jobportal/internal/bootstrap"
	"anoa.com/jobportal/internal/config"
	"anoa.com/jobportal/pkg/database"
)

func main() {
	jobsOnly := flag.Bool("jobs-only", false, "seed sample jobs without applications")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect(database.Options{
		Driver:      cfg.DBDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.DBPath,
	})
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	_, created, err := bootstrap.SeedSampleJobs(db)
	if err != nil {
		log.Fatalf("failed to seed jobs: %v", err)
	}
	log.Printf("✅ Created %d sample jobs", created)

	if *jobsOnly {
		return
	}

	applied, err := bootstrap.SeedSampleApplications(db)
	if err != nil {
		log.Fatalf("failed to seed applications: %v", err)
	}
	log.Printf("✅ Created %d sample applications", applied)
	log.Println("   Employee: test_employee / testpass123")
	log.Println("   Applicant: test_applicant / testpass123")
}
