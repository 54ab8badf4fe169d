package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/presence"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
)

type presenceApi struct {
	tracker  *presence.Tracker
	userSvc  *user.Service
	validate *validator.Validate
}

func registerPresenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := presenceApi{tracker: deps.Tracker, userSvc: deps.UserSvc, validate: deps.Validate}

	pg := g.Group("/presence", jwt)
	pg.POST("/heartbeat", api.heartbeat)
	pg.DELETE("", api.disconnect)
	pg.GET("/online", api.online, adminMiddleware())
}

// HeartbeatRequest is the periodic liveness ping from a logged-in device.
type HeartbeatRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,lat"`
	Longitude *float64 `json:"longitude" validate:"omitempty,lon"`
	Device    string   `json:"device"`
}

func (hr *HeartbeatRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(hr)
}

func (api *presenceApi) heartbeat(ctx echo.Context) error {
	var data HeartbeatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HeartbeatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	role := "teacher"
	if usr.IsAdmin() {
		role = "admin"
	}
	var coords *geo.Coordinates
	if data.Latitude != nil && data.Longitude != nil {
		coords = &geo.Coordinates{Latitude: *data.Latitude, Longitude: *data.Longitude}
	}

	rec, err := api.tracker.Heartbeat(
		ctx.Request().Context(),
		usr.ID,
		presence.Profile{Name: usr.Name, Role: role, Device: data.Device},
		coords,
	)
	if err != nil {
		return errors.Wrap(err, "recording heartbeat")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *presenceApi) disconnect(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.tracker.Disconnect(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "disconnecting")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *presenceApi) online(ctx echo.Context) error {
	records, err := api.tracker.Online(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying online users")
	}
	if records == nil {
		records = []presence.ActiveSession{}
	}
	return ctx.JSON(http.StatusOK, records)
}
