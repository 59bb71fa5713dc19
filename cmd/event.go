package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/employee-console/internal/core/events"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish console events by hand, e.g. to repair a profile picture that failed to sync.`,
}

var syncPictureURL string

var syncPictureCmd = &cobra.Command{
	Use:   "sync-picture",
	Short: "Publish upload.completed for an already uploaded profile picture",
	Long:  `Replays the profile-picture upload event for the signed-in user, so the HR backend points at --url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, err := env.Session(ctx)
			if err != nil {
				return err
			}

			if env.Services.Bus.Subscribers(events.EventTypeUploadCompleted) == 0 {
				profile.NewEventHandler(env.Services.Profile, env.Logger).RegisterEventHandlers(env.Services.Bus)
			}

			event := events.NewUploadCompletedEvent(
				events.UploadKindProfilePicture, "", syncPictureURL, sess.User.ID, sess.UpstreamToken, 0, "")

			env.Logger.Info("publishing event", "event_type", event.EventType(), "event_id", event.EventID())
			if err := env.Services.Bus.PublishSync(ctx, event); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Profile picture set to %s\n", syncPictureURL)
			return nil
		})
	},
}

func init() {
	syncPictureCmd.Flags().StringVar(&syncPictureURL, "url", "", "public URL of the picture")
	_ = syncPictureCmd.MarkFlagRequired("url")

	eventCmd.AddCommand(syncPictureCmd)
	rootCmd.AddCommand(eventCmd)
}
