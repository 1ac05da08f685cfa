package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/features"
	"github.com/parlayiq/picks-engine/internal/mlmodels"
	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/utils"
)

// DataStore is the slice of the data layer the prediction handlers use.
type DataStore interface {
	FindPlayer(ctx context.Context, name, team, sport string) (*models.Player, error)
	RecentPlayerStats(ctx context.Context, playerID string, n int) []models.PlayerGameStat
	TeamHistory(ctx context.Context, team, sport string, n int) []models.HistoricalGame
}

// Handler serves the v2 prediction API.
type Handler struct {
	store      DataStore
	registry   *mlmodels.Registry
	logger     *logrus.Logger
	gameWindow int
}

func NewHandler(store DataStore, registry *mlmodels.Registry, logger *logrus.Logger, gameWindow int) *Handler {
	if gameWindow <= 0 {
		gameWindow = 20
	}
	return &Handler{store: store, registry: registry, logger: logger, gameWindow: gameWindow}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"models": h.registry.Len(),
	})
}

func (h *Handler) ModelsStatus(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"loaded": h.registry.Len(),
		"keys":   h.registry.Keys(),
	})
}

type playerPropRequest struct {
	Sport      string  `json:"sport" binding:"required"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Team       string  `json:"team"`
	PropType   string  `json:"prop_type" binding:"required"`
	Line       float64 `json:"line"`
}

func (h *Handler) PredictPlayerProp(c *gin.Context) {
	var req playerPropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if req.PlayerID == "" && req.PlayerName == "" {
		utils.SendValidationError(c, "player_id or player_name is required")
		return
	}

	model, ok := h.registry.Lookup(req.Sport, req.PropType)
	if !ok {
		utils.SendNotFound(c, fmt.Sprintf("no model for %s %s; available: %v", req.Sport, req.PropType, h.registry.Keys()))
		return
	}

	family := features.StatFamily(req.PropType)
	var history []models.PlayerGameStat
	if req.PlayerID != "" {
		history = h.store.RecentPlayerStats(c.Request.Context(), req.PlayerID, h.gameWindow)
	} else {
		player, err := h.store.FindPlayer(c.Request.Context(), req.PlayerName, req.Team, req.Sport)
		if err != nil {
			h.logger.WithError(err).WithField("player", req.PlayerName).Warn("Player lookup failed, using default features")
		} else if player != nil {
			history = h.store.RecentPlayerStats(c.Request.Context(), player.ID, h.gameWindow)
		}
	}

	vec := features.PlayerVector(history, family)
	pred, err := mlmodels.Evaluate(model, vec, req.Line, len(history))
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, pred)
}

type teamBetRequest struct {
	Sport    string  `json:"sport" binding:"required"`
	HomeTeam string  `json:"home_team" binding:"required"`
	AwayTeam string  `json:"away_team" binding:"required"`
	Line     float64 `json:"line"`
}

func (h *Handler) PredictSpread(c *gin.Context)    { h.predictTeamBet(c, "spread") }
func (h *Handler) PredictTotal(c *gin.Context)     { h.predictTeamBet(c, "total") }
func (h *Handler) PredictMoneyline(c *gin.Context) { h.predictTeamBet(c, "moneyline") }

func (h *Handler) predictTeamBet(c *gin.Context, market string) {
	var req teamBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	model, ok := h.registry.Lookup(req.Sport, market)
	if !ok {
		utils.SendNotFound(c, fmt.Sprintf("no model for %s %s; available: %v", req.Sport, market, h.registry.Keys()))
		return
	}

	homeHist := h.store.TeamHistory(c.Request.Context(), req.HomeTeam, req.Sport, h.gameWindow)
	awayHist := h.store.TeamHistory(c.Request.Context(), req.AwayTeam, req.Sport, h.gameWindow)

	homeVec := features.TeamVector(homeHist, req.HomeTeam)
	awayVec := features.TeamVector(awayHist, req.AwayTeam)
	vec := make([]float64, features.TeamVectorSize)
	for i := range vec {
		vec[i] = homeVec[i] - awayVec[i]
	}

	pred, err := mlmodels.Evaluate(model, vec, req.Line, len(homeHist)+len(awayHist))
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	if market == "moneyline" {
		// Logistic output is home win probability.
		if pred.Prediction >= 0.5 {
			pred.Recommendation = "home"
		} else {
			pred.Recommendation = "away"
		}
	}
	utils.SendSuccess(c, pred)
}
