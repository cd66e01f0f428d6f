package usecase

import (
	"context"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/domain/ports/repository"
)

// Compile-time check
var _ InterviewUseCase = (*interviewUC)(nil)

// InterviewUseCase serves the dashboard: finished and in-progress interview
// records from the durable store.
type InterviewUseCase interface {
	List(ctx context.Context, ownerID string) ([]*model.Interview, error)
	Get(ctx context.Context, id, ownerID string) (*model.Interview, error)
}

type interviewUC struct {
	interviews repository.InterviewRepository
}

func NewInterviewUseCase(interviews repository.InterviewRepository) *interviewUC {
	return &interviewUC{interviews: interviews}
}

func (u *interviewUC) List(ctx context.Context, ownerID string) ([]*model.Interview, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	return u.interviews.ListByOwner(ctx, nil, ownerID)
}

func (u *interviewUC) Get(ctx context.Context, id, ownerID string) (*model.Interview, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.interviews.FindOwned(ctx, nil, id, ownerID)
}
