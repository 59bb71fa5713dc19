package profile

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/employee-console/internal/core/events"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type recordingUpdater struct {
	calls []string
	err   error
}

func (r *recordingUpdater) UpdateProfilePicture(ctx context.Context, token, userID, url string) (*employee.User, string, error) {
	r.calls = append(r.calls, token+"|"+userID+"|"+url)
	return nil, "", r.err
}

var _ = ginkgo.Describe("Profile EventHandler", func() {
	var (
		ctx     context.Context
		updater *recordingUpdater
		bus     *events.EventBus
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		updater = &recordingUpdater{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(lg)
		NewEventHandler(updater, lg).RegisterEventHandlers(bus)
	})

	ginkgo.It("updates the profile for profile-picture uploads", func() {
		event := events.NewUploadCompletedEvent(events.UploadKindProfilePicture, "Profile Pictures/1-me-Ana.png",
			"https://cdn/Profile Pictures/1-me-Ana.png", "u-1", "tok", 10, "image/png")
		gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())
		gomega.Expect(updater.calls).To(gomega.Equal([]string{"tok|u-1|https://cdn/Profile Pictures/1-me-Ana.png"}))
	})

	ginkgo.It("ignores other uploads", func() {
		event := events.NewUploadCompletedEvent(events.UploadKindDocument, "doc.pdf", "https://cdn/doc.pdf", "u-1", "tok", 10, "application/pdf")
		gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())
		gomega.Expect(updater.calls).To(gomega.BeEmpty())
	})

	ginkgo.It("reports backend failures to the publisher", func() {
		updater.err = errors.New("backend down")
		event := events.NewUploadCompletedEvent(events.UploadKindProfilePicture, "k", "https://cdn/k", "u-1", "tok", 1, "image/png")
		gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.MatchError(gomega.ContainSubstring("backend down")))
	})
})
