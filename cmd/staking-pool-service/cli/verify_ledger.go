package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/observability/tracing"
	"github.com/stakevault-io/staking-pool-service/internal/services"
)

// VerifyLedgerCmd cross-checks the pool document against the aggregated
// positions and the bank-side vault balance. Exits non-zero on divergence so
// it can run as a periodic job:
// ./staking-pool-service verify-ledger --config config.yml
func VerifyLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-ledger",
		Short: "Checks ledger consistency against positions and the bank",
		Args:  cobra.ExactArgs(0),
		RunE:  verifyLedger,
	}

	return cmd
}

func verifyLedger(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	bank := bankclient.NewClient(&cfg.Bank)
	srv := services.NewService(cfg, dbClient, bank, nil)

	report, err := srv.VerifyLedger(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("pool total staked:   %d\n", report.PoolTotalStaked)
	fmt.Printf("positions total:     %d\n", report.PositionsTotal)
	fmt.Printf("active positions:    %d\n", report.ActivePositions)
	fmt.Printf("stake vault balance: %d\n", report.StakeVaultBalance)

	if !report.Consistent() {
		return fmt.Errorf("ledger inconsistent: pool=%d positions=%d vault=%d",
			report.PoolTotalStaked, report.PositionsTotal, report.StakeVaultBalance)
	}

	fmt.Println("ledger consistent")
	return nil
}
