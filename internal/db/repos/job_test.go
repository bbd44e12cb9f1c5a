package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

type JobRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func (s *JobRepositoryTestSuite) TestCreateJob() {
	job := s.createTestJob()
	s.Require().NotZero(job.ID)

	created, err := s.jobRepo.GetByJobID(s.ctx, job.JobID)
	s.Require().NoError(err)
	s.Require().Equal(job.JobID, created.JobID)
	s.Require().Equal(job.WebhookURL, created.WebhookURL)
	s.Require().Equal(models.JobStatusCreated, created.Status)
}

func (s *JobRepositoryTestSuite) TestCreateJobDuplicateID() {
	job := s.createTestJob()

	dup := &models.Job{
		JobID:         job.JobID,
		WebhookURL:    "http://other.example/hook",
		WebhookSecret: "other",
	}
	s.Require().Error(s.jobRepo.Create(s.ctx, dup))
}

func (s *JobRepositoryTestSuite) TestGetByJobIDNotFound() {
	_, err := s.jobRepo.GetByJobID(s.ctx, "missing-job")
	s.Require().Error(err)
	s.Require().ErrorIs(err, ErrRecordNotFound)
}

func (s *JobRepositoryTestSuite) TestUpdateStatus() {
	job := s.createTestJob()

	err := s.jobRepo.UpdateStatus(s.ctx, job.JobID, models.JobStatusRunning)
	s.Require().NoError(err)

	updated, err := s.jobRepo.GetByJobID(s.ctx, job.JobID)
	s.Require().NoError(err)
	s.Require().Equal(models.JobStatusRunning, updated.Status)
}

func (s *JobRepositoryTestSuite) TestList() {
	s.createTestJob()
	second := s.createTestJob()
	s.Require().NoError(s.jobRepo.UpdateStatus(s.ctx, second.JobID, models.JobStatusRunning))

	jobs, err := s.jobRepo.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)

	running := models.JobStatusRunning
	jobs, err = s.jobRepo.List(s.ctx, &models.ListOptions{Status: &running})
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Require().Equal(second.JobID, jobs[0].JobID)

	jobs, err = s.jobRepo.List(s.ctx, &models.ListOptions{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
}

func TestJobRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(JobRepositoryTestSuite))
}
