package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
)

// SubjectRepo persists the subject registry under subjects/{id}.
type SubjectRepo struct {
	store Store
}

var _ subject.Repository = (*SubjectRepo)(nil)

func NewSubjectRepo(store Store) *SubjectRepo {
	return &SubjectRepo{store: store}
}

func (r *SubjectRepo) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	if err := r.put(ctx, subj); err != nil {
		return subject.Subject{}, err
	}
	return subj, nil
}

func (r *SubjectRepo) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	value, err := r.store.Get(ctx, Join(SubjectsPrefix, id))
	if err == ErrKeyNotFound {
		return subject.Subject{}, subject.ErrNotFound
	}
	if err != nil {
		return subject.Subject{}, err
	}
	var subj subject.Subject
	if err = json.Unmarshal(value, &subj); err != nil {
		return subject.Subject{}, errors.Wrapf(err, "decoding subject %s", id)
	}
	return subj, nil
}

func (r *SubjectRepo) QueryAllSubjects(ctx context.Context) ([]subject.Subject, error) {
	return r.query(ctx, nil)
}

func (r *SubjectRepo) QuerySubjectsByTeacher(ctx context.Context, teacherID string) ([]subject.Subject, error) {
	return r.query(ctx, func(subj subject.Subject) bool { return subj.TeacherID == teacherID })
}

func (r *SubjectRepo) UpdateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	orig, err := r.GetSubjectByID(ctx, subj.ID)
	if err != nil {
		return subject.Subject{}, err
	}

	if subj.Name == "" {
		subj.Name = orig.Name
	}
	if subj.TeacherID == "" {
		subj.TeacherID = orig.TeacherID
	}
	if subj.ClassID == "" {
		subj.ClassID = orig.ClassID
	}
	if subj.Day == "" {
		subj.Day = orig.Day
	}
	if subj.TimeRange == "" {
		subj.TimeRange = orig.TimeRange
	}
	subj.CreatedAt = orig.CreatedAt

	if err = r.put(ctx, subj); err != nil {
		return subject.Subject{}, err
	}
	return subj, nil
}

func (r *SubjectRepo) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := r.store.Delete(ctx, Join(SubjectsPrefix, id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *SubjectRepo) put(ctx context.Context, subj subject.Subject) error {
	value, err := json.Marshal(subj)
	if err != nil {
		return errors.Wrapf(err, "encoding subject %s", subj.ID)
	}
	return r.store.Put(ctx, Join(SubjectsPrefix, subj.ID), value)
}

func (r *SubjectRepo) query(ctx context.Context, keep func(subject.Subject) bool) ([]subject.Subject, error) {
	snap, err := r.store.List(ctx, SubjectsPrefix)
	if err != nil {
		return nil, err
	}
	subjects := make([]subject.Subject, 0, len(snap))
	for path, value := range snap {
		var subj subject.Subject
		if err = json.Unmarshal(value, &subj); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		if keep == nil || keep(subj) {
			subjects = append(subjects, subj)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}
