package subject

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("subject not found")

type (
	Repository interface {
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		QuerySubjectsByTeacher(ctx context.Context, teacherID string) ([]Subject, error)
		UpdateSubject(ctx context.Context, subj Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	subj := Subject{
		ID:        uuid.New().String(),
		Name:      ns.Name,
		TeacherID: ns.TeacherID,
		ClassID:   ns.ClassID,
		Day:       ns.Day,
		TimeRange: ns.TimeRange,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubject(ctx, subj)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsByTeacher(ctx, teacherID)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	subj := Subject{
		ID:        id,
		Name:      us.Name,
		TeacherID: us.TeacherID,
		ClassID:   us.ClassID,
		Day:       us.Day,
		TimeRange: us.TimeRange,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSubject(ctx, subj)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}
