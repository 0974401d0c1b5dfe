package cli

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/database"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/service"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/worker"
)

var (
	replayGrace time.Duration
	replayLimit int
)

var replayPaidCmd = &cobra.Command{
	Use:   "replay-paid",
	Short: "Republish order.paid for paid orders whose stock was never taken",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if replayLimit < 1 {
			return fmt.Errorf("--limit must be at least 1")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.Connect(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer ch.Close()
		if err := worker.SetupRabbitMQ(ch); err != nil {
			return err
		}

		publisher := worker.NewPublisher(conn.Channel)
		defer publisher.Close()
		replayer := service.NewFulfilmentReplayer(repository.NewOrderRepository(pool), publisher, newLogger(cmd))
		return replayPaid(cmd.Context(), replayer, replayGrace, replayLimit, cmd)
	},
}

func init() {
	replayPaidCmd.Flags().DurationVar(&replayGrace, "grace", 2*time.Minute, "skip orders paid more recently than this")
	replayPaidCmd.Flags().IntVar(&replayLimit, "limit", 500, "maximum number of orders to republish")
	rootCmd.AddCommand(replayPaidCmd)
}

func replayPaid(ctx context.Context, r worker.Replayer, grace time.Duration, limit int, cmd *cobra.Command) error {
	n, err := r.Replay(ctx, grace, limit)
	fmt.Fprintf(cmd.OutOrStdout(), "republished %d paid order(s)\n", n)
	return err
}
