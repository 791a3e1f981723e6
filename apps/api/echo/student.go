package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
)

// Teacher API

type teacherApi struct {
	svc       student.Service
	reportSvc report.Service
}

func registerTeacherAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	userSvc user.Service,
	svc student.Service,
	reportSvc report.Service,
) {
	api := teacherApi{svc: svc, reportSvc: reportSvc}

	tg := g.Group("/teacher", jwt, teacherMiddleware(userSvc))

	tg.GET("/students", api.queryStudents)
	tg.POST("/students", api.createStudent)
	tg.GET("/students/:id/marks", api.queryStudentMarks)
	tg.GET("/marks", api.queryOwnMarks)
	tg.GET("/dashboard", api.dashboard)

	// mark entry is re-checked against the live account record
	tg.POST("/marks", api.submitMark, markEntryMiddleware(userSvc))
}

func (api *teacherApi) queryStudents(ctx echo.Context) error {
	stus, err := api.svc.StudentsByClass(ctx.Request().Context(), ctx.QueryParam("class"))
	if err != nil {
		return errors.Wrap(err, "querying students by class")
	}
	if stus == nil {
		stus = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, stus)
}

func (api *teacherApi) createStudent(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	stu, created, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	if !created {
		return ctx.JSON(http.StatusOK, stu)
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *teacherApi) queryStudentMarks(ctx echo.Context) error {
	marks, err := api.svc.MarksByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying marks by student")
	}
	if marks == nil {
		marks = []student.Mark{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *teacherApi) queryOwnMarks(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	marks, err := api.svc.MarksByTeacher(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying marks by teacher")
	}
	if marks == nil {
		marks = []student.Mark{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *teacherApi) submitMark(ctx echo.Context) error {
	var data student.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mark, err := api.svc.SubmitMark(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting mark")
	}
	return ctx.JSON(http.StatusCreated, mark)
}

func (api *teacherApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	dash, err := api.reportSvc.TeacherDashboard(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building teacher dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// Public results API

type resultApi struct {
	svc student.Service
}

// registerResultAPI exposes the public result lookup. The endpoint is
// CORS-open so the result page can be embedded anywhere.
func registerResultAPI(g *echo.Group, svc student.Service) {
	api := resultApi{svc: svc}

	rg := g.Group("/results", middleware.CORS())
	rg.GET("/:admissionNumber", api.retrieve)
}

func (api *resultApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.ResultByAdmissionNumber(ctx.Request().Context(), ctx.Param("admissionNumber"))
	if err != nil {
		return errors.Wrap(err, "looking up result")
	}
	return ctx.JSON(http.StatusOK, res)
}
