package controller

import (
	"context"
	"fmt"
	"io"

	"github.com/gartstein/hiring/internal/pipeline/export"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
)

// ExportApplications writes a job's applications to w as an xlsx workbook.
func (s *PipelineService) ExportApplications(ctx context.Context, actor *tracker.Actor, jobID uuid.UUID, w io.Writer) error {
	apps, err := s.ListApplications(ctx, actor, jobID)
	if err != nil {
		return err
	}
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if err := export.Applications(w, job, apps); err != nil {
		return fmt.Errorf("failed to export applications: %w", err)
	}
	return nil
}
