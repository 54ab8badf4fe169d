package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	. "github.com/shidqimaqshid/geoattend-app-sub000/apps/api/echo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/student"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/kv"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// resetStore wipes every collection so each test starts from a clean slate.
func resetStore(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	prefixes := []string{
		kv.OfficesPrefix, kv.StudentsPrefix, kv.TeachersPrefix,
		kv.SubjectsPrefix, kv.SessionsPrefix, kv.ActiveUsersPrefix, kv.ConfigPrefix,
	}
	for _, prefix := range prefixes {
		snap, err := store.List(ctx, prefix)
		if err != nil {
			t.Fatalf("resetStore() failed: %v", err)
		}
		for path := range snap {
			if err = store.Delete(ctx, path); err != nil {
				t.Fatalf("resetStore() failed: %v", err)
			}
		}
	}
}

func createUser(
	t *testing.T,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createOffice(t *testing.T, name string, coords geo.Coordinates) office.Office {
	t.Helper()

	now := time.Now().UTC()
	off, err := offRepo.CreateOffice(context.Background(), office.Office{
		ID:          uuid.New().String(),
		Name:        name,
		Coordinates: coords,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("createOffice() failed: %v", err)
	}
	return off
}

func createSubject(t *testing.T, name, teacherID, classID, day, timeRange string) subject.Subject {
	t.Helper()

	now := time.Now().UTC()
	subj, err := subjRepo.CreateSubject(context.Background(), subject.Subject{
		ID:        uuid.New().String(),
		Name:      name,
		TeacherID: teacherID,
		ClassID:   classID,
		Day:       day,
		TimeRange: timeRange,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return subj
}

func createStudent(t *testing.T, name, classID string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	std, err := stdRepo.CreateStudent(context.Background(), student.Student{
		ID:        uuid.New().String(),
		Name:      name,
		ClassID:   classID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}
