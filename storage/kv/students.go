package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/student"
)

// StudentRepo persists the student roster under students/{id}.
type StudentRepo struct {
	store Store
}

var _ student.Repository = (*StudentRepo)(nil)

func NewStudentRepo(store Store) *StudentRepo {
	return &StudentRepo{store: store}
}

func (r *StudentRepo) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	if err := r.put(ctx, std); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (r *StudentRepo) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	value, err := r.store.Get(ctx, Join(StudentsPrefix, id))
	if err == ErrKeyNotFound {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, err
	}
	var std student.Student
	if err = json.Unmarshal(value, &std); err != nil {
		return student.Student{}, errors.Wrapf(err, "decoding student %s", id)
	}
	return std, nil
}

func (r *StudentRepo) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return r.query(ctx, nil)
}

func (r *StudentRepo) QueryStudentsByClass(ctx context.Context, classID string) ([]student.Student, error) {
	return r.query(ctx, func(std student.Student) bool { return std.ClassID == classID })
}

func (r *StudentRepo) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	orig, err := r.GetStudentByID(ctx, std.ID)
	if err != nil {
		return student.Student{}, err
	}

	if std.Name == "" {
		std.Name = orig.Name
	}
	if std.ClassID == "" {
		std.ClassID = orig.ClassID
	}
	if std.Gender == "" {
		std.Gender = orig.Gender
	}
	if std.PhotoURL == "" {
		std.PhotoURL = orig.PhotoURL
	}
	std.CreatedAt = orig.CreatedAt

	if err = r.put(ctx, std); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (r *StudentRepo) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := r.store.Delete(ctx, Join(StudentsPrefix, id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *StudentRepo) put(ctx context.Context, std student.Student) error {
	value, err := json.Marshal(std)
	if err != nil {
		return errors.Wrapf(err, "encoding student %s", std.ID)
	}
	return r.store.Put(ctx, Join(StudentsPrefix, std.ID), value)
}

func (r *StudentRepo) query(ctx context.Context, keep func(student.Student) bool) ([]student.Student, error) {
	snap, err := r.store.List(ctx, StudentsPrefix)
	if err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(snap))
	for path, value := range snap {
		var std student.Student
		if err = json.Unmarshal(value, &std); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		if keep == nil || keep(std) {
			students = append(students, std)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}
