package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
)

// OfficeRepo persists classrooms and their geofence centers under
// offices/{id}.
type OfficeRepo struct {
	store Store
}

var _ office.Repository = (*OfficeRepo)(nil)

func NewOfficeRepo(store Store) *OfficeRepo {
	return &OfficeRepo{store: store}
}

func (r *OfficeRepo) CreateOffice(ctx context.Context, off office.Office) (office.Office, error) {
	if err := r.put(ctx, off); err != nil {
		return office.Office{}, err
	}
	return off, nil
}

func (r *OfficeRepo) GetOfficeByID(ctx context.Context, id string) (office.Office, error) {
	value, err := r.store.Get(ctx, Join(OfficesPrefix, id))
	if err == ErrKeyNotFound {
		return office.Office{}, office.ErrNotFound
	}
	if err != nil {
		return office.Office{}, err
	}
	var off office.Office
	if err = json.Unmarshal(value, &off); err != nil {
		return office.Office{}, errors.Wrapf(err, "decoding office %s", id)
	}
	return off, nil
}

func (r *OfficeRepo) QueryAllOffices(ctx context.Context) ([]office.Office, error) {
	snap, err := r.store.List(ctx, OfficesPrefix)
	if err != nil {
		return nil, err
	}
	offices := make([]office.Office, 0, len(snap))
	for path, value := range snap {
		var off office.Office
		if err = json.Unmarshal(value, &off); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		offices = append(offices, off)
	}
	sort.Slice(offices, func(i, j int) bool { return offices[i].ID < offices[j].ID })
	return offices, nil
}

func (r *OfficeRepo) UpdateOffice(ctx context.Context, off office.Office) (office.Office, error) {
	orig, err := r.GetOfficeByID(ctx, off.ID)
	if err != nil {
		return office.Office{}, err
	}

	if off.Name == "" {
		off.Name = orig.Name
	}
	if off.Grade == "" {
		off.Grade = orig.Grade
	}
	if off.HomeroomTeacherID == "" {
		off.HomeroomTeacherID = orig.HomeroomTeacherID
	}
	if off.Address == "" {
		off.Address = orig.Address
	}
	if off.Coordinates.IsZero() {
		off.Coordinates = orig.Coordinates
	}
	off.CreatedAt = orig.CreatedAt

	if err = r.put(ctx, off); err != nil {
		return office.Office{}, err
	}
	return off, nil
}

func (r *OfficeRepo) DeleteOfficesByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := r.store.Delete(ctx, Join(OfficesPrefix, id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *OfficeRepo) put(ctx context.Context, off office.Office) error {
	value, err := json.Marshal(off)
	if err != nil {
		return errors.Wrapf(err, "encoding office %s", off.ID)
	}
	return r.store.Put(ctx, Join(OfficesPrefix, off.ID), value)
}
