package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	logsvc "github.com/trezcool/matokeo/services/logger"
	sheetsvc "github.com/trezcool/matokeo/services/sheets"
	"github.com/trezcool/matokeo/storage/database"
	"github.com/trezcool/matokeo/storage/database/sqlxrepos"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		rbLogger := logsvc.NewRollbarLogger(std, conf)
		rbLogger.Enable(!conf.Debug)
		logger = rbLogger
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	student.RegisterValidators(validate, translator)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	var appender core.RowAppender
	if conf.Sheets.SpreadsheetID == "" {
		appender = sheetsvc.NewConsoleService(logger)
	} else {
		if appender, err = sheetsvc.NewGoogleService(context.Background(), conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up spreadsheet mirror: %v", err), err)
		}
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, validate, conf)
	stuSvc := student.NewService(sqlxrepos.NewStudentRepository(db), appender, logger, validate, conf)
	repSvc := report.NewService(sqlxrepos.NewReportRepository(db), conf)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.ServerAddress(),
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		StudentSvc:     stuSvc,
		ReportSvc:      repSvc,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db, conf); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
