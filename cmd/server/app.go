package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/auth"
	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/handlers"
	"github.com/diewo77/ca-practice/internal/pdf"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires the store, services and handlers behind one router.
type App struct {
	router    *mux.Router
	handler   http.Handler
	scheduler *services.Scheduler
	stopJobs  context.CancelFunc
	log       *zap.Logger
}

// NewApp builds the application on an open, migrated connection. level is
// exposed at /api/log-level so the running server's verbosity can change.
func NewApp(cfg *config.Config, conn *gorm.DB, log *zap.Logger, level zap.AtomicLevel) (*App, error) {
	loc, err := time.LoadLocation(cfg.Automation.Timezone)
	if err != nil {
		return nil, fmt.Errorf("automation timezone: %w", err)
	}
	now := handlers.Clock(time.Now)
	st := store.New(conn)

	invoices := services.NewInvoiceService(st)
	tasks := services.NewTaskService(st)
	notifier := services.NewNotifier(cfg.Mail, log.Named("notify"))
	automation := services.NewAutomation(st, notifier, loc, log.Named("automation"))
	files := services.NewFileStore(cfg.Storage.UploadDir, services.DefaultMaxUpload)

	// Scheduled jobs outlive any request; Close cancels them.
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	scheduler := services.NewScheduler(loc, log)
	if err := scheduler.RegisterAutomation(jobsCtx, automation, cfg.Automation); err != nil {
		stopJobs()
		return nil, err
	}

	if cfg.App.SessionSecret == "" {
		log.Warn("SESSION_SECRET not set, signing sessions with the development secret")
	}
	sessions := auth.New(cfg.App.SessionSecret, func(ctx context.Context, id string) bool {
		_, err := st.Staff.Get(ctx, id)
		return err == nil
	})
	guard := func(h http.Handler) http.Handler { return sessions.RequireAuth(h) }

	app := &App{
		router:    mux.NewRouter(),
		scheduler: scheduler,
		stopJobs:  stopJobs,
		log:       log,
	}

	health := handlers.NewHealthHandler(st, time.Now(), log)
	clients := handlers.NewClientHandler(st, log)
	taskH := handlers.NewTaskHandler(st, tasks, notifier, log, now)
	invoiceH := handlers.NewInvoiceHandler(st, invoices, pdf.CompanyData{
		Name:    cfg.App.PracticeName,
		Address: cfg.App.PracticeAddress,
	}, log, now)
	docs := handlers.NewDocumentHandler(st, files, log)
	staff := handlers.NewStaffHandler(st, log)
	queries := handlers.NewQueryHandler(st, log, now)
	ca := handlers.NewCAHandler(log, now)
	reports := handlers.NewReportHandler(services.NewDashboardService(st, invoices), services.NewReportService(st), log, now)
	templates := handlers.NewTemplateHandler(services.NewTemplateService(st, tasks), log, now)
	auto := handlers.NewAutomationHandler(automation, scheduler, log)
	imports := handlers.NewImportHandler(services.NewImportService(st, tasks, log.Named("import")), log)
	authH := handlers.NewAuthHandler(st, sessions, log)

	api := app.router.PathPrefix("/api").Subrouter()
	api.Use(sessions.Middleware)
	api.HandleFunc("/", health.Root).Methods(http.MethodGet)
	api.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	api.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)

	api.HandleFunc("/clients", clients.List).Methods(http.MethodGet)
	api.HandleFunc("/clients", clients.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients/{id}", clients.Get).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", clients.Update).Methods(http.MethodPut)
	api.HandleFunc("/clients/{id}", clients.Delete).Methods(http.MethodDelete)
	api.Handle("/export/clients", guard(http.HandlerFunc(clients.Export))).Methods(http.MethodGet)

	api.HandleFunc("/auth/session", authH.Login).Methods(http.MethodPost)
	api.Handle("/auth/me", guard(http.HandlerFunc(authH.Me))).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", authH.Logout).Methods(http.MethodPost)
	api.Handle("/log-level", guard(level)).Methods(http.MethodGet, http.MethodPut)

	api.HandleFunc("/tasks", taskH.List).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskH.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", taskH.Get).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskH.Update).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", taskH.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/advance-stage", taskH.AdvanceStage).Methods(http.MethodPost)
	api.Handle("/notifications/deadline-reminder/{id}", guard(http.HandlerFunc(taskH.Remind))).Methods(http.MethodPost)

	api.HandleFunc("/invoices", invoiceH.List).Methods(http.MethodGet)
	api.HandleFunc("/invoices", invoiceH.Create).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}", invoiceH.Get).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", invoiceH.Update).Methods(http.MethodPut)
	api.HandleFunc("/invoices/{id}", invoiceH.Delete).Methods(http.MethodDelete)
	api.Handle("/invoices/{id}/pdf", guard(http.HandlerFunc(invoiceH.PDF))).Methods(http.MethodGet)

	api.HandleFunc("/documents", docs.List).Methods(http.MethodGet)
	api.HandleFunc("/documents", docs.Create).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", docs.Get).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docs.Update).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}", docs.Delete).Methods(http.MethodDelete)
	api.Handle("/upload", guard(http.HandlerFunc(docs.Upload))).Methods(http.MethodPost)
	api.Handle("/upload/smart", guard(http.HandlerFunc(docs.Upload))).Methods(http.MethodPost)

	api.Handle("/import/clients", guard(http.HandlerFunc(imports.Clients))).Methods(http.MethodPost)
	api.Handle("/import/tasks", guard(http.HandlerFunc(imports.Tasks))).Methods(http.MethodPost)
	api.Handle("/import/templates/clients", guard(http.HandlerFunc(imports.ClientTemplate))).Methods(http.MethodGet)
	api.Handle("/import/templates/tasks", guard(http.HandlerFunc(imports.TaskTemplate))).Methods(http.MethodGet)

	api.HandleFunc("/staff", staff.List).Methods(http.MethodGet)
	api.HandleFunc("/staff", staff.Create).Methods(http.MethodPost)
	api.HandleFunc("/staff/{id}", staff.Get).Methods(http.MethodGet)
	api.HandleFunc("/staff/{id}", staff.Update).Methods(http.MethodPut)
	api.HandleFunc("/staff/{id}", staff.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/queries", queries.List).Methods(http.MethodGet)
	api.HandleFunc("/queries", queries.Create).Methods(http.MethodPost)
	api.HandleFunc("/queries/{id}", queries.Get).Methods(http.MethodGet)
	api.HandleFunc("/queries/{id}/respond", queries.Respond).Methods(http.MethodPost)

	api.HandleFunc("/dashboard/stats", reports.Dashboard).Methods(http.MethodGet)
	api.Handle("/reports/compliance", guard(http.HandlerFunc(reports.Compliance))).Methods(http.MethodGet)
	api.Handle("/calendar/tasks", guard(http.HandlerFunc(reports.Calendar))).Methods(http.MethodGet)

	api.HandleFunc("/ca/business-types", ca.BusinessTypes).Methods(http.MethodGet)
	api.HandleFunc("/ca/wip-stages", ca.WIPStages).Methods(http.MethodGet)
	api.HandleFunc("/ca/financial-year", ca.FinancialYear).Methods(http.MethodGet)
	api.HandleFunc("/ca/quarter", ca.Quarter).Methods(http.MethodGet)
	api.HandleFunc("/ca/checklists/{service}", ca.Checklist).Methods(http.MethodGet)
	api.HandleFunc("/ca/compliance-requirements", ca.ComplianceRequirements).Methods(http.MethodPost)
	api.HandleFunc("/ca/validate-gstin", ca.ValidateGSTIN).Methods(http.MethodPost)
	api.HandleFunc("/ca/validate-pan", ca.ValidatePAN).Methods(http.MethodPost)
	api.HandleFunc("/ca/calculate-late-fee", ca.LateFee).Methods(http.MethodPost)

	api.Handle("/templates/services", guard(http.HandlerFunc(templates.List))).Methods(http.MethodGet)
	api.Handle("/templates/create-task", guard(http.HandlerFunc(templates.CreateTask))).Methods(http.MethodPost)

	api.Handle("/automation/start", guard(http.HandlerFunc(auto.Start))).Methods(http.MethodPost)
	api.Handle("/automation/stop", guard(http.HandlerFunc(auto.Stop))).Methods(http.MethodPost)
	api.Handle("/automation/status", guard(http.HandlerFunc(auto.Status))).Methods(http.MethodGet)
	api.Handle("/automation/trigger/{job}", guard(http.HandlerFunc(auto.Trigger))).Methods(http.MethodPost)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, string(apperr.KindNotFound), "no route for "+r.URL.Path, nil)
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path, nil)
	})

	app.router.PathPrefix(services.URLPrefix).Handler(
		http.StripPrefix(services.URLPrefix, http.FileServer(uploadFS{http.Dir(files.Dir())})),
	).Methods(http.MethodGet, http.MethodHead)

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.App.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}),
		gorillahandlers.AllowCredentials(),
	)
	app.handler = withLogging(log, cors(withRecover(log, app.router)))
	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// RunAutomation runs the scheduled jobs until ctx is done.
func (a *App) RunAutomation(ctx context.Context) error {
	return a.scheduler.Run(ctx)
}

// Close cancels running jobs and stops the scheduler.
func (a *App) Close() {
	a.stopJobs()
	a.scheduler.Stop()
}

// uploadFS serves stored files only; directories read as missing so that
// their contents are never listed.
type uploadFS struct {
	http.FileSystem
}

func (fs uploadFS) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.StackSkip("stack", 2))
				httpx.JSONError(w, http.StatusInternalServerError, string(apperr.KindInternal), "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging adds request logging middleware.
func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
