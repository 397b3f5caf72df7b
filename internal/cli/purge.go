package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"connext-backend/internal/db"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/repositories"
	"connext-backend/internal/service"
)

func NewPurgeCommand(opts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every user, group, message and stored image",
		Long: `Delete every user, group, message and stored image.

Images are destroyed first so none are orphaned in the image store; then all
tables are truncated. This cannot be undone.

Example:
  connext purge --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to purge without --yes")
			}
			database, err := db.Connect(opts.Config.DatabaseDSN)
			if err != nil {
				return err
			}
			defer database.Close()

			images, err := imagestore.New(opts.Config.CloudinaryURL, opts.Config.UploadDir)
			if err != nil {
				return err
			}
			report, err := newPurgeService(database, images).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged all data: %d images destroyed, %d failed\n", report.ImagesDestroyed, report.ImagesFailed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm that all data should be deleted")
	return cmd
}

func newPurgeService(database *sqlx.DB, images imagestore.Store) *service.PurgeService {
	users := repositories.NewUserRepo(database)
	groups := repositories.NewGroupRepo(database)
	messages := repositories.NewMessageRepo(database)
	wipe := func(ctx context.Context) error { return db.Truncate(ctx, database) }
	return service.NewPurgeService(images, wipe, users.ListProfileImages, groups.ListGroupImages, messages.ListMessageImages)
}
