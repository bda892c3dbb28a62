// Package fakecrm is an in-memory CRM backend with the same REST surface as the
// real one. It backs integration tests and `leadrider mock-server`.
package fakecrm

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL = 24 * time.Hour

	userKey = "fakecrm.user"
)

type account struct {
	user models.User
	hash []byte
}

// Server holds all backend state behind one mutex.
type Server struct {
	secret []byte
	now    func() time.Time
	log    logrus.FieldLogger
	cost   int

	mu         sync.Mutex
	accounts   map[string]*account
	leads      []*models.Lead
	activities []*models.Activity
	revoked    map[string]bool
	nextID     int64

	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the token signing key.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// New returns an empty backend.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("leadrider-dev-secret"),
		now:      time.Now,
		log:      logrus.StandardLogger(),
		cost:     bcrypt.DefaultCost,
		accounts: make(map[string]*account),
		revoked:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())

	r.POST("/users/login", s.login)
	r.POST("/users/register", s.register)

	authed := r.Group("/", s.requireAuth())
	authed.GET("/users/me", s.me)
	authed.GET("/leads", s.listLeads)
	authed.POST("/leads", s.createLead)
	authed.GET("/leads/:id", s.getLead)
	authed.PUT("/leads/:id", s.updateLead)
	authed.DELETE("/leads/:id", s.deleteLead)
	authed.GET("/leads/:id/activities", s.listActivities)
	authed.POST("/leads/:id/activities", s.createActivity)
	authed.GET("/dashboard/statistics", s.statistics)
	return r
}

// corsMiddleware lets the browser front-end on its dev ports talk to the mock server.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173", // Vite dev server
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Total-Count",
		},
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Microsecond),
			"request_id": c.GetHeader("X-Request-ID"),
		}).Debug("fakecrm request")
	}
}

// AddUser creates an account directly, bypassing registration.
func (s *Server) AddUser(reg models.Registration) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[reg.Username]; exists {
		return nil, errors.New("Username already registered")
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, reg.Email) {
			return nil, errors.New("Email already registered")
		}
	}
	s.nextID++
	a := &account{
		user: models.User{
			ID:        s.nextID,
			Username:  reg.Username,
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			CreatedAt: models.Timestamp{Time: s.now().UTC()},
		},
		hash: hash,
	}
	s.accounts[reg.Username] = a
	u := a.user
	return &u, nil
}

// IssueToken signs an access token for username, as login does.
func (s *Server) IssueToken(username string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Revoke makes token fail authentication from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abortDetail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		username, err := s.validateToken(raw)
		if err != nil {
			abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.mu.Lock()
		a, exists := s.accounts[username]
		revoked := s.revoked[raw]
		s.mu.Unlock()
		if !exists || revoked {
			abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		c.Set(userKey, a.user)
		c.Next()
	}
}

func (s *Server) validateToken(raw string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet(userKey).(models.User)
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// validationDetail renders field failures the way the backend reports a 422.
func validationDetail(c *gin.Context, err error) {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	detail := make([]gin.H, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		detail = append(detail, gin.H{
			"loc":  []string{"body", f.Field},
			"msg":  f.Message,
			"type": "value_error",
		})
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": detail})
}
