package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/formtalk/formtalk/internal/initialization"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the delivery service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, err := initialization.NewContainer(ctx)
			if err != nil {
				return err
			}

			defer func() {
				if err := container.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("Failed to close container")
				}
			}()

			return container.Run(ctx)
		},
	}
}
