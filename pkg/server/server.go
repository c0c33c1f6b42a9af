// Package server is a small in-memory implementation of the /tasks REST API.
// It backs the serve command and the client tests.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

// UpcomingDays is the window used by GET /tasks/upcoming: due dates from today
// to today+UpcomingDays, both included.
const UpcomingDays = 7

type Server struct {
	engine *gin.Engine
	tasks  *memoryStore
	now    func() time.Time
}

type Option func(*options)

type options struct {
	now       func() time.Time
	jwtSecret []byte
	accessLog bool
	seed      []model.Task
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithJWTSecret requires a valid HS256 bearer token on every /tasks route.
func WithJWTSecret(secret string) Option {
	return func(o *options) {
		if secret != "" {
			o.jwtSecret = []byte(secret)
		}
	}
}

func WithAccessLog() Option {
	return func(o *options) { o.accessLog = true }
}

// WithTasks preloads tasks; ids and creation times are assigned as if created in order.
func WithTasks(tasks ...model.Task) Option {
	return func(o *options) { o.seed = append(o.seed, tasks...) }
}

func New(opts ...Option) *Server {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if o.accessLog {
		engine.Use(gin.Logger())
	}
	engine.Use(cors.Default(), requestID())

	s := &Server{engine: engine, tasks: newMemoryStore(o.now), now: o.now}
	for _, t := range o.seed {
		s.tasks.create(t)
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})

	api := engine.Group("/tasks")
	if o.jwtSecret != nil {
		api.Use(bearerAuth(o.jwtSecret))
	}
	api.GET("", s.list)
	api.POST("", s.create)
	api.GET("/upcoming", s.upcoming)
	api.GET("/overdue", s.overdue)
	api.GET("/:id", s.get)
	api.PUT("/:id", s.update)
	api.DELETE("/:id", s.delete)
	api.PUT("/:id/toggle", s.toggle)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

type taskRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	DueDate     *string `json:"dueDate"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high LOW MEDIUM HIGH"`
	Completed   *bool   `json:"completed"`
	Status      string  `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
}

type toggleRequest struct {
	PreviousCompleted *bool `json:"previousCompleted" binding:"required"`
}

func (r taskRequest) toTask() (model.Task, map[string]string) {
	t := model.Task{
		Title:     strings.TrimSpace(r.Title),
		Priority:  model.ParsePriority(r.Priority),
		Completed: (r.Completed != nil && *r.Completed) || r.Status == model.StatusCompleted,
	}
	if r.Description != nil {
		if desc := strings.TrimSpace(*r.Description); desc != "" {
			t.Description = &desc
		}
	}
	if r.DueDate != nil && *r.DueDate != "" {
		due, err := model.ParseDate(*r.DueDate)
		if err != nil {
			return model.Task{}, map[string]string{"dueDate": err.Error()}
		}
		t.DueDate = &due
	}
	return t, nil
}

func (s *Server) today() model.Date {
	return model.Today(s.now())
}

func (s *Server) list(c *gin.Context) {
	tasks := s.tasks.list()
	switch status := c.Query("status"); status {
	case "":
	case model.StatusPending, model.StatusCompleted:
		tasks = view.FilterAndSort(tasks, view.Query{Filter: view.Filter(status)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + status})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) upcoming(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(view.Upcoming(s.tasks.list(), s.today(), UpcomingDays)))
}

func (s *Server) overdue(c *gin.Context) {
	out := view.FilterAndSort(s.tasks.list(), view.Query{Filter: view.FilterOverdue, Sort: view.SortDueDate, Today: s.today()})
	c.JSON(http.StatusOK, out)
}

func (s *Server) get(c *gin.Context) {
	t, ok := s.tasks.get(model.ID(c.Param("id")))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, fields := req.toTask()
	if fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": fields})
		return
	}
	c.JSON(http.StatusCreated, s.tasks.create(t))
}

func (s *Server) update(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, fields := req.toTask()
	if fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": fields})
		return
	}
	updated, ok := s.tasks.replace(model.ID(c.Param("id")), t)
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, ok := s.tasks.setCompleted(model.ID(c.Param("id")), *req.PreviousCompleted)
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) delete(c *gin.Context) {
	if !s.tasks.delete(model.ID(c.Param("id"))) {
		notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
}

func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = "failed on " + fe.Tag()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": fields})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func nonNil(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}
