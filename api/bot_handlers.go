package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotpilot/manager"
	"spotpilot/store"
)

const recentLogLines = 50

// CreateBotRequest is the POST /api/bot body.
type CreateBotRequest struct {
	Name      string  `json:"name" binding:"required"`
	Symbol    string  `json:"symbol" binding:"required"`
	Strategy  string  `json:"strategy" binding:"required"`
	Allocated float64 `json:"allocated" binding:"required"`
}

// PatchBotRequest is the PATCH /api/bot/{id} body; zero-value fields are
// left unchanged except where a pointer makes "unset" explicit.
type PatchBotRequest struct {
	Name      *string  `json:"name"`
	Symbol    *string  `json:"symbol"`
	Strategy  *string  `json:"strategy"`
	Allocated *float64 `json:"allocated"`
}

// handleOverview returns every bot plus the C8 budget summary.
func (s *Server) handleOverview(c *gin.Context) {
	bots, err := s.supervisor.ListBots()
	if err != nil {
		SafeInternalError(c, "list bots", err)
		return
	}

	ctx := c.Request.Context()
	free, err := s.accountant.UsdtFree(ctx)
	if err != nil {
		SafeInternalError(c, "read exchange balance", err)
		return
	}
	totalAllocated, err := s.accountant.TotalAllocated()
	if err != nil {
		SafeInternalError(c, "sum allocations", err)
		return
	}
	available, err := s.accountant.AvailableForAllocation(ctx)
	if err != nil {
		SafeInternalError(c, "compute available allocation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bots": bots,
		"summary": gin.H{
			"usdt_free":                free,
			"total_allocated":          totalAllocated,
			"available_for_allocation": available,
		},
	})
}

// handleGetBot returns one bot's config, open position (if any), and its
// most recent trade log lines.
func (s *Server) handleGetBot(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	cfg, err := s.supervisor.GetBot(id)
	if err != nil {
		if err == store.ErrNotFound {
			SafeNotFound(c, "bot")
			return
		}
		SafeInternalError(c, "load bot", err)
		return
	}

	var position *store.PositionSnapshot
	pos, err := s.store.Positions().Get(id)
	if err == nil {
		position = pos
	} else if err != store.ErrNotFound {
		SafeInternalError(c, "load position", err)
		return
	}

	trades, err := s.store.Trades().ForBot(id, recentLogLines)
	if err != nil {
		SafeInternalError(c, "load trade log", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config":   cfg,
		"position": position,
		"trades":   trades,
	})
}

func (s *Server) handleCreateBot(c *gin.Context) {
	var req CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SafeBadRequest(c, "invalid request parameters")
		return
	}
	cfg := &store.BotConfig{Name: req.Name, Symbol: req.Symbol, Strategy: req.Strategy, Allocated: req.Allocated}
	if err := s.supervisor.CreateBot(c.Request.Context(), cfg); err != nil {
		if err == manager.ErrOverAllocation {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		SafeInternalError(c, "create bot", err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// handlePatchBot edits a bot's config. Per §6, symbol/strategy/allocated
// edits are only valid while the bot is stopped; UpdateAllocation already
// enforces that for allocation, and the same check is applied here for the
// other fields since the store layer does not re-check business invariants.
func (s *Server) handlePatchBot(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	var req PatchBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SafeBadRequest(c, "invalid request parameters")
		return
	}

	cfg, err := s.supervisor.GetBot(id)
	if err != nil {
		if err == store.ErrNotFound {
			SafeNotFound(c, "bot")
			return
		}
		SafeInternalError(c, "load bot", err)
		return
	}

	if req.Allocated != nil {
		if err := s.supervisor.UpdateAllocation(c.Request.Context(), id, *req.Allocated); err != nil {
			respondBotEditError(c, err)
			return
		}
	}

	if req.Name != nil || req.Symbol != nil || req.Strategy != nil {
		if cfg.State != store.BotStopped {
			c.JSON(http.StatusConflict, gin.H{"error": manager.ErrNotStopped.Error()})
			return
		}
		if req.Name != nil {
			cfg.Name = *req.Name
		}
		if req.Symbol != nil {
			cfg.Symbol = *req.Symbol
		}
		if req.Strategy != nil {
			cfg.Strategy = *req.Strategy
		}
		if err := s.store.Bots().Update(cfg); err != nil {
			SafeInternalError(c, "update bot", err)
			return
		}
	}

	cfg, err = s.supervisor.GetBot(id)
	if err != nil {
		SafeInternalError(c, "reload bot", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleStartBot(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	if err := s.supervisor.Start(id); err != nil {
		SafeInternalError(c, "start bot", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "started"})
}

func (s *Server) handleStopBot(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	if err := s.supervisor.Stop(id); err != nil {
		SafeInternalError(c, "stop bot", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stopped"})
}

func (s *Server) handleAddFunds(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SafeBadRequest(c, "invalid request parameters")
		return
	}
	if err := s.supervisor.AddFunds(c.Request.Context(), id, req.Amount); err != nil {
		respondBotEditError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "funds added"})
}

func (s *Server) handleDeleteBot(c *gin.Context) {
	id, ok := botIDParam(c)
	if !ok {
		return
	}
	if err := s.supervisor.DeleteBot(id); err != nil {
		respondBotEditError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func respondBotEditError(c *gin.Context, err error) {
	switch err {
	case manager.ErrOverAllocation, manager.ErrNotStopped, manager.ErrNotFlat:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case store.ErrNotFound:
		SafeNotFound(c, "bot")
	default:
		SafeInternalError(c, "bot operation", err)
	}
}
