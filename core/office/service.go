package office

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

var ErrNotFound = errors.New("office not found")

type (
	Repository interface {
		CreateOffice(ctx context.Context, off Office) (Office, error)
		GetOfficeByID(ctx context.Context, id string) (Office, error)
		QueryAllOffices(ctx context.Context) ([]Office, error)
		UpdateOffice(ctx context.Context, off Office) (Office, error)
		DeleteOfficesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, no NewOffice) (Office, error) {
	now := time.Now().UTC()
	off := Office{
		ID:                uuid.New().String(),
		Name:              no.Name,
		Grade:             no.Grade,
		HomeroomTeacherID: no.HomeroomTeacherID,
		Address:           no.Address,
		Coordinates:       geo.Coordinates{Latitude: no.Latitude, Longitude: no.Longitude},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateOffice(ctx, off)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Office, error) {
	return svc.repo.GetOfficeByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Office, error) {
	return svc.repo.QueryAllOffices(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, uo UpdateOffice) (Office, error) {
	off := Office{
		ID:                id,
		Name:              uo.Name,
		Grade:             uo.Grade,
		HomeroomTeacherID: uo.HomeroomTeacherID,
		Address:           uo.Address,
		Coordinates:       geo.Coordinates{Latitude: *uo.Latitude, Longitude: *uo.Longitude},
		UpdatedAt:         time.Now().UTC(),
	}
	return svc.repo.UpdateOffice(ctx, off)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteOfficesByID(ctx, ids...)
}
