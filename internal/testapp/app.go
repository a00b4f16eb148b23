// Package testapp serves a minimal login application with the same markup contract as
// the real frontend. Browser tests and the smoke CLI run against it when no live
// environment is available.
package testapp

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultEmail    = "user@example.com"
	DefaultPassword = "Password123"

	// InvalidCredentialsMessage is rendered in the alert after a failed login
	InvalidCredentialsMessage = "Invalid credentials"
	// TooManyAttemptsMessage is rendered when the login rate limit is exceeded
	TooManyAttemptsMessage = "Too many login attempts, try again later"

	sessionCookie = "uiharness_session"
)

// Config configures the fixture application
type Config struct {
	Email    string
	Password string
	Logger   *zap.Logger

	// EnableCORS allows cross-origin requests, for pages served from another origin
	EnableCORS bool
	// LoginRate limits POST /login; zero disables limiting
	LoginRate  rate.Limit
	LoginBurst int
}

// DefaultConfig returns the config with the default credentials
func DefaultConfig() Config {
	return Config{
		Email:    DefaultEmail,
		Password: DefaultPassword,
	}
}

// App is the fixture HTTP application
type App struct {
	chi.Router

	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter
	token   string
}

// New creates the fixture application with all routes configured
func New(cfg Config) *App {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Email == "" {
		cfg.Email = DefaultEmail
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}

	a := &App{
		Router: chi.NewRouter(),
		cfg:    cfg,
		logger: cfg.Logger,
		token:  uuid.NewString(),
	}
	if cfg.LoginRate > 0 {
		burst := cfg.LoginBurst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(cfg.LoginRate, burst)
	}

	a.Use(chimw.RequestID)
	a.Use(chimw.RealIP)
	a.Use(NewRecoveryMiddleware(a.logger).Handler)
	a.Use(NewLoggingMiddleware(a.logger).Handler)
	a.Use(chimw.Timeout(30 * time.Second))

	if cfg.EnableCORS {
		a.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	a.Get("/health", healthHandler)
	a.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	a.Get("/login", a.loginForm)
	a.Post("/login", a.login)
	a.Get("/dashboard", a.dashboard)
	a.Post("/logout", a.logout)

	return a
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	if a.authenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	a.render(w, http.StatusOK, loginTemplate, loginView{})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	if a.limiter != nil && !a.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		a.render(w, http.StatusTooManyRequests, loginTemplate, loginView{Error: TooManyAttemptsMessage})
		return
	}

	if err := r.ParseForm(); err != nil {
		a.render(w, http.StatusBadRequest, loginTemplate, loginView{Error: InvalidCredentialsMessage})
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	if !a.validCredentials(email, password) {
		a.logger.Info("Login rejected", zap.String("email", email))
		a.render(w, http.StatusUnauthorized, loginTemplate, loginView{
			Email: email,
			Error: InvalidCredentialsMessage,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    a.token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (a *App) dashboard(w http.ResponseWriter, r *http.Request) {
	if !a.authenticated(r) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	a.render(w, http.StatusOK, dashboardTemplate, dashboardView{Email: a.cfg.Email})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) validCredentials(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.cfg.Email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password)) == 1
	return emailOK && passwordOK
}

func (a *App) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == a.token
}

func (a *App) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("Rendering page failed", zap.String("template", tmpl.Name()), zap.Error(err))
	}
}
