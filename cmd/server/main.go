// NewsDaily server
// ================
//
// Runs only the web server, configured from NEWSDAILY_* environment
// variables (and .env). The newsdaily CLI at the module root offers the
// same server plus maintenance commands.

package main

import (
	"context"
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdaily-web/internal/app"
	"newsdaily-web/internal/config"
	"newsdaily-web/internal/logging"
	"newsdaily-web/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal("Error initialising logger: ", err)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting NewsDaily")

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Error initialising application", zap.Error(err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := server.Run(context.Background(), cfg.Server, a.Router(), logger); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
	logger.Info("✅ Server closed")
}
