package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
)

type officeApi struct {
	svc      *office.Service
	validate *validator.Validate
}

func registerOfficeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := officeApi{svc: deps.OfficeSvc, validate: deps.Validate}

	og := g.Group("/offices", jwt)
	og.GET("", api.query)
	og.POST("", api.create, adminMiddleware())

	dg := og.Group("/:id", api.objectMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *officeApi) query(ctx echo.Context) error {
	offices, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying offices")
	}
	if offices == nil {
		offices = []office.Office{}
	}
	return ctx.JSON(http.StatusOK, offices)
}

func (api *officeApi) create(ctx echo.Context) error {
	var data office.NewOffice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOffice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	off, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating office")
	}
	return ctx.JSON(http.StatusCreated, off)
}

func (api *officeApi) retrieve(ctx echo.Context) error {
	off, ok := ctx.Get("object").(office.Office)
	if !ok {
		return errors.New("office object not found in echo.Context")
	}
	return ctx.JSON(http.StatusOK, off)
}

func (api *officeApi) update(ctx echo.Context) error {
	off, ok := ctx.Get("object").(office.Office)
	if !ok {
		return errors.New("office object not found in echo.Context")
	}

	var data office.UpdateOffice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOffice")
	}
	if err := data.Validate(off, api.validate); err != nil {
		return err
	}

	off, err := api.svc.Update(ctx.Request().Context(), off.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating office")
	}
	return ctx.JSON(http.StatusOK, off)
}

func (api *officeApi) destroy(ctx echo.Context) error {
	off, ok := ctx.Get("object").(office.Office)
	if !ok {
		return errors.New("office object not found in echo.Context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), off.ID); err != nil {
		return errors.Wrap(err, "deleting office")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *officeApi) objectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			off, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == office.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding office by ID")
			}
			ctx.Set("object", off)
			return next(ctx)
		}
	}
}
