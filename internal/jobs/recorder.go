package jobs

import "context"

// The methods below let the pipeline persist progress without knowing about
// SQL. Each one loads the row by request id, mutates it, and writes it back.

// RecordStart creates the row for a new request and returns its id.
func (s *Store) RecordStart(ctx context.Context, requestID, sourcePath, instruction, outputDir string) (int64, error) {
	job, err := s.Create(ctx, requestID, sourcePath, instruction, outputDir)
	if err != nil || job == nil {
		return 0, err
	}
	return job.ID, nil
}

// RecordStage marks the request as running stage.
func (s *Store) RecordStage(ctx context.Context, requestID, stage string) error {
	job, err := s.mustGet(ctx, requestID)
	if err != nil {
		return err
	}
	job.Stage = stage
	job.Status = StatusForStage(stage)
	return s.Update(ctx, job)
}

// RecordClips stores the synthesis counters.
func (s *Store) RecordClips(ctx context.Context, requestID string, total, synthesized, cached, failed int) error {
	job, err := s.mustGet(ctx, requestID)
	if err != nil {
		return err
	}
	job.ClipsTotal = total
	job.ClipsSynthesized = synthesized
	job.ClipsCached = cached
	job.ClipsFailed = failed
	return s.Update(ctx, job)
}

// RecordDone marks the request completed.
func (s *Store) RecordDone(ctx context.Context, requestID, outputFile string, durationMS int) error {
	job, err := s.mustGet(ctx, requestID)
	if err != nil {
		return err
	}
	job.Status = StatusCompleted
	job.OutputFile = outputFile
	job.DurationMS = durationMS
	job.ErrorKind = ""
	job.ErrorMessage = ""
	return s.Update(ctx, job)
}

// RecordFailure marks the request failed at stage.
func (s *Store) RecordFailure(ctx context.Context, requestID, stage, kind, message string) error {
	job, err := s.mustGet(ctx, requestID)
	if err != nil {
		return err
	}
	job.Status = StatusFailed
	job.Stage = stage
	job.ErrorKind = kind
	job.ErrorMessage = message
	return s.Update(ctx, job)
}
