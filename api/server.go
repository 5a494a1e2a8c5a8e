// Package api implements the dashboard HTTP surface: bot CRUD, start/stop,
// add-funds, and the overview feed. HTML/UI is out of scope; this package
// returns JSON only.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spotpilot/auth"
	"spotpilot/logger"
	"spotpilot/manager"
	"spotpilot/store"
)

// Server wires the HTTP surface to the supervisor and accountant.
type Server struct {
	router     *gin.Engine
	supervisor *manager.Supervisor
	accountant *manager.Accountant
	store      *store.Store
	httpServer *http.Server
	port       int

	// operatorPasswordHash and operatorOTPSecret authenticate the single
	// dashboard operator; an empty OTP secret disables the second factor.
	operatorPasswordHash string
	operatorOTPSecret    string
}

// NewServer builds the dashboard server and registers every route.
func NewServer(sup *manager.Supervisor, acc *manager.Accountant, st *store.Store, port int, operatorPasswordHash, operatorOTPSecret string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router: router, supervisor: sup, accountant: acc, store: st, port: port,
		operatorPasswordHash: operatorPasswordHash, operatorOTPSecret: operatorOTPSecret,
	}
	s.setupRoutes()
	return s
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/login", s.handleLogin)

		protected := api.Group("/", s.authMiddleware())
		{
			protected.POST("/logout", s.handleLogout)

			protected.GET("/overview", s.handleOverview)
			protected.GET("/bot/:id", s.handleGetBot)
			protected.POST("/bot", s.handleCreateBot)
			protected.PATCH("/bot/:id", s.handlePatchBot)
			protected.POST("/bot/:id/start", s.handleStartBot)
			protected.POST("/bot/:id/stop", s.handleStopBot)
			protected.POST("/bot/:id/add-funds", s.handleAddFunds)
			protected.DELETE("/bot/:id", s.handleDeleteBot)
		}
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully — the dashboard-side analogue of C7's cooperative bot stop.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: ":" + strconv.Itoa(s.port), Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleLogin authenticates the single operator with password + optional
// TOTP, returning a JWT on success (§6's dashboard surface doesn't name an
// auth endpoint explicitly but one is required to guard it; see DESIGN.md).
func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
		OTPCode  string `json:"otp_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SafeBadRequest(c, "invalid request parameters")
		return
	}
	if !auth.CheckPassword(req.Password, s.operatorPasswordHash) {
		SafeUnauthorized(c)
		return
	}
	if s.operatorOTPSecret != "" {
		if !auth.VerifyOTP(s.operatorOTPSecret, req.OTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "otp code incorrect"})
			return
		}
	}
	token, err := auth.GenerateJWT()
	if err != nil {
		SafeInternalError(c, "generate token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	tokenString := bearerToken(c)
	claims, err := auth.ValidateJWT(tokenString)
	if err != nil {
		SafeUnauthorized(c)
		return
	}
	exp := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	auth.BlacklistToken(tokenString, exp)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			SafeUnauthorized(c)
			c.Abort()
			return
		}
		if _, err := auth.ValidateJWT(tokenString); err != nil {
			logger.Warnf("api: rejected request: %v", err)
			SafeUnauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func botIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		SafeBadRequest(c, "invalid bot id")
		return 0, false
	}
	return id, true
}
