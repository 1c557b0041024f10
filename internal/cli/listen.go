package cli

import (
	"log"

	"github.com/spf13/cobra"

	"classquiz-service/internal/config"
	"classquiz-service/internal/domain"
	"classquiz-service/internal/notify"
)

// NewListenCmd builds a student-side client that subscribes to the
// notification channel and prints NEW_QUIZ events. Useful for smoke
// testing the channel without a browser.
func NewListenCmd(configPath *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Subscribe to new-quiz notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			sub := notify.NewSubscriber(
				&notify.WSTransport{URL: url},
				func(n domain.Notification) {
					log.Printf("new quiz published: %q", n.Title)
				},
				notify.WithReconnectDelay(config.Duration(cfg.Notify.ReconnectDelay, notify.DefaultReconnectDelay)),
				notify.WithDismissAfter(config.Duration(cfg.Notify.DismissAfter, notify.DefaultDismissAfter)),
				notify.WithDismissFunc(func() {
					log.Printf("notification dismissed")
				}),
			)
			sub.Run(cmd.Context())
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "websocket notification endpoint")
	return cmd
}
