package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/stakevault-io/staking-pool-service/internal/api"
	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	dbmodel "github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/observability/tracing"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the staking pool service",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up staking db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var bank bankclient.BankClient = bankclient.NewClient(&cfg.Bank)
	bank = bankclient.NewBankClientWithMetrics(bank)

	qm, err := queue.NewQueueManager(cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating queue manager")
	}

	service := services.NewService(cfg, dbClient, bank, qm)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartStatsPoller(ctx)

	apiServer := api.New(&cfg.Server, service)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		if err := apiServer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("API server exited with an error")
		}
	})
	wg.Wait()

	qm.Shutdown()
	return nil
}
