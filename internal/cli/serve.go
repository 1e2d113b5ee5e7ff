package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsdaily-web/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if !a.Config.Log.Development {
			gin.SetMode(gin.ReleaseMode)
		}
		logger.Info("Starting NewsDaily",
			zap.String("store", a.Durable.Path()),
			zap.Int("posts", len(a.Posts.All())))

		return server.Run(cmd.Context(), a.Config.Server, a.Router(), logger)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
