package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/shidqimaqshid/geoattend-app-sub000/apps/api/echo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/presence"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
)

func Test_presenceApi(t *testing.T) {
	resetStore(t)

	teacher := createUser(t, "Guru Satu", "gurusatu", "gurusatu@test.sch.id", "", []string{user.RoleTeacher}, true)
	admin := createUser(t, "Kepala Sekolah", "kepsek", "kepsek@test.sch.id", "", []string{user.RoleAdmin}, true)

	token := getToken(t, teacher)
	adminToken := getToken(t, admin)

	lat, lon := -6.2, 106.816666
	hbBody := marchallObj(t, echoapi.HeartbeatRequest{Latitude: &lat, Longitude: &lon, Device: "android"})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/presence/heartbeat", hbBody)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}, rec)
	})

	t.Run("heartbeat", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/presence/heartbeat", token, hbBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %s", rec.Code, rec.Body.String())
		}
		var rec2 presence.ActiveSession
		if err := json.Unmarshal(rec.Body.Bytes(), &rec2); err != nil {
			t.Fatalf("unmarshalling ActiveSession failed: %v", err)
		}
		if rec2.UserID != teacher.ID || rec2.Role != "teacher" {
			t.Errorf("record = (%s, %s); want (%s, teacher)", rec2.UserID, rec2.Role, teacher.ID)
		}
		if rec2.Coordinates == nil || rec2.Coordinates.Latitude != lat {
			t.Errorf("Coordinates = %+v; want lat %v", rec2.Coordinates, lat)
		}
		if rec2.LastSeen == 0 {
			t.Error("LastSeen not set")
		}
	})

	t.Run("online is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/presence/online", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("online lists the teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/presence/online", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %s", rec.Code, rec.Body.String())
		}
		var records []presence.ActiveSession
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("unmarshalling records failed: %v", err)
		}
		if len(records) != 1 || records[0].UserID != teacher.ID {
			t.Errorf("records = %+v; want the teacher only", records)
		}
	})

	t.Run("disconnect", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/presence", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; data = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/presence/online", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)}, rec)
	})
}
