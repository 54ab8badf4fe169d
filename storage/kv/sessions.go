package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
)

// SessionRepo persists class sessions under sessions/{id}.
type SessionRepo struct {
	store Store
}

var _ attendance.Repository = (*SessionRepo)(nil)

func NewSessionRepo(store Store) *SessionRepo {
	return &SessionRepo{store: store}
}

func (r *SessionRepo) GetSession(ctx context.Context, id string) (attendance.ClassSession, error) {
	value, err := r.store.Get(ctx, Join(SessionsPrefix, id))
	if err == ErrKeyNotFound {
		return attendance.ClassSession{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.ClassSession{}, err
	}
	var sess attendance.ClassSession
	if err = json.Unmarshal(value, &sess); err != nil {
		return attendance.ClassSession{}, errors.Wrapf(err, "decoding session %s", id)
	}
	return sess, nil
}

func (r *SessionRepo) QueryAllSessions(ctx context.Context) ([]attendance.ClassSession, error) {
	return r.query(ctx, nil)
}

func (r *SessionRepo) QuerySessionsByDate(ctx context.Context, date string) ([]attendance.ClassSession, error) {
	return r.query(ctx, func(sess attendance.ClassSession) bool { return sess.Date == date })
}

func (r *SessionRepo) QuerySessionsByTeacher(ctx context.Context, teacherID string) ([]attendance.ClassSession, error) {
	return r.query(ctx, func(sess attendance.ClassSession) bool { return sess.TeacherID == teacherID })
}

// UpsertSession writes sess if the stored revision still matches
// sess.Revision, bumping it on the way out. The revision check and the write
// happen inside one store Update so concurrent writers cannot interleave.
func (r *SessionRepo) UpsertSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	err := r.store.Update(ctx, Join(SessionsPrefix, sess.ID), func(current []byte) ([]byte, error) {
		if current == nil {
			if sess.Revision != 0 {
				return nil, attendance.ErrRevisionConflict
			}
		} else {
			var stored attendance.ClassSession
			if err := json.Unmarshal(current, &stored); err != nil {
				return nil, errors.Wrapf(err, "decoding session %s", sess.ID)
			}
			if stored.Revision != sess.Revision {
				return nil, attendance.ErrRevisionConflict
			}
		}
		sess.Revision++
		return json.Marshal(sess)
	})
	if err != nil {
		return attendance.ClassSession{}, err
	}
	return sess, nil
}

func (r *SessionRepo) query(ctx context.Context, keep func(attendance.ClassSession) bool) ([]attendance.ClassSession, error) {
	snap, err := r.store.List(ctx, SessionsPrefix)
	if err != nil {
		return nil, err
	}
	sessions := make([]attendance.ClassSession, 0, len(snap))
	for path, value := range snap {
		var sess attendance.ClassSession
		if err = json.Unmarshal(value, &sess); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		if keep == nil || keep(sess) {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}
