// Browser UI for managing Canvas course participation windows
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"canvas-course-manager/internal/cache"
	"canvas-course-manager/internal/canvas"
	"canvas-course-manager/internal/catalog"
	"canvas-course-manager/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var errNotConnected = errors.New("not connected to Canvas")

// Server serves the admin UI. It owns the single operator session and
// the cache store; a Canvas client is built per interaction from the
// session's credentials.
type Server struct {
	cfg     *config.Config
	store   *cache.DiskStore
	session *Session
	timeout time.Duration
	engine  *gin.Engine
}

// New creates the UI server from a validated config.
func New(cfg *config.Config) (*Server, error) {
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}
	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout: %w", err)
	}

	store := cache.NewDiskStore(cfg.Cache.Folder, ttl)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		session: NewSession(cfg.UI.CourseDisplayLimit, config.CredentialsFromEnv()),
		timeout: timeout,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"fmtTime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"fmtDate": func(t *time.Time) string {
			if t == nil {
				return "—"
			}
			return t.UTC().Format("2006-01-02")
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", s.handleIndex)
	engine.POST("/connect", s.handleConnect)
	engine.POST("/reset", s.handleReset)
	engine.POST("/terms/load", s.handleTermsLoad)
	engine.POST("/terms/select", s.handleTermsSelect)
	engine.POST("/courses/refresh", s.handleCoursesRefresh)
	engine.POST("/courses/filter", s.handleCoursesFilter)
	engine.POST("/courses/more", s.handleCoursesMore)
	engine.POST("/courses/select", s.handleCoursesSelect)
	engine.POST("/courses/apply", s.handleCoursesApply)
	engine.POST("/courses/count", s.handleCoursesCount)
	engine.GET("/lookup", s.handleLookup)
	engine.POST("/lookup", s.handleLookupSearch)
	engine.POST("/lookup/apply", s.handleLookupApply)

	s.engine = engine
	return s, nil
}

// Start starts the UI server
func (s *Server) Start() error {
	logrus.Infof("Starting course manager on port %d", s.cfg.Server.Port)
	logrus.Infof("Cache directory: %s", s.cfg.Cache.Folder)
	logrus.Infof("Cache TTL: %s", s.cfg.Cache.TTL)
	logrus.Infof("Course display limit: %d", s.cfg.UI.CourseDisplayLimit)

	return s.engine.Run(fmt.Sprintf(":%d", s.cfg.Server.Port))
}

// Handler exposes the HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// client builds a Canvas client from the session credentials.
func (s *Server) client() (*canvas.Client, error) {
	creds, connected := s.session.Credentials()
	if !connected {
		return nil, errNotConnected
	}
	return canvas.New(creds.Domain, creds.Token, s.timeout), nil
}

// catalog builds the cache-aside catalog for the session credentials,
// also returning the account id list calls need.
func (s *Server) catalog() (*catalog.Catalog, string, error) {
	creds, connected := s.session.Credentials()
	if !connected {
		return nil, "", errNotConnected
	}
	client := canvas.New(creds.Domain, creds.Token, s.timeout)
	return catalog.New(client, s.store), creds.AccountID, nil
}
