package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/pkg/config"
)

// NewRouter wires the prediction API.
func NewRouter(cfg *config.Config, handler *Handler, logger *logrus.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORS(cfg.CorsOrigins))

	router.GET("/health", handler.Health)

	v2 := router.Group("/api/v2")
	{
		v2.GET("/models/status", handler.ModelsStatus)
		predict := v2.Group("/predict")
		{
			predict.POST("/player-prop", handler.PredictPlayerProp)
			predict.POST("/spread", handler.PredictSpread)
			predict.POST("/total", handler.PredictTotal)
			predict.POST("/moneyline", handler.PredictMoneyline)
		}
	}

	return router
}
