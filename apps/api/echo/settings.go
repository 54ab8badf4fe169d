package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

type settingsApi struct {
	repo     core.SettingsRepository
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := settingsApi{repo: deps.SettingsRepo, validate: deps.Validate}

	sg := g.Group("/settings", jwt)
	sg.GET("", api.retrieve)
	sg.PUT("", api.update, adminMiddleware())
}

// AppSettingsRequest updates the school-wide period and the system toggle.
type AppSettingsRequest struct {
	SchoolYear   string `json:"school_year" validate:"required"`
	Semester     string `json:"semester" validate:"required,oneof=Ganjil Genap"`
	SystemActive bool   `json:"is_system_active"`
}

func (sr *AppSettingsRequest) Validate(validate *validator.Validate) error {
	sr.SchoolYear = core.CleanString(sr.SchoolYear)
	return validate.Struct(sr)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	settings, err := api.repo.GetAppSettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting app settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data AppSettingsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AppSettingsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	settings := core.AppSettings{
		SchoolYear:   data.SchoolYear,
		Semester:     data.Semester,
		SystemActive: data.SystemActive,
	}
	if err := api.repo.SaveAppSettings(ctx.Request().Context(), settings); err != nil {
		return errors.Wrap(err, "saving app settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}
