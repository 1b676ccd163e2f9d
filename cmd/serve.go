package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/routes"
	"github.com/cppla/yatube/storage"
	"github.com/cppla/yatube/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer func() { _ = utils.Logger.Sync() }()

		ctx := commandContext(cmd)
		images, err := newImageStore(cfg)
		if err != nil {
			return err
		}
		r, err := routes.SetupRouter(routes.Deps{
			DB:     db,
			Config: cfg,
			Cache:  utils.NewCache(ctx, cfg),
			Images: images,
		})
		if err != nil {
			return err
		}

		utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
		return utils.GraceServer(ctx, ":"+cfg.AppPort, r)
	},
}

func newImageStore(cfg config.AppConfig) (storage.ImageStore, error) {
	maxBytes := int64(cfg.MediaMaxMB) << 20
	if cfg.MediaBackend == "s3" {
		return storage.NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, maxBytes)
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL, maxBytes), nil
}
