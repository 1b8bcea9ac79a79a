package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	dbmodel "github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/tracing"
	"github.com/stakevault-io/staking-pool-service/internal/services"
)

const (
	flagAdmin       = "admin"
	flagAuthority   = "authority"
	flagStakeAsset  = "stake-asset"
	flagRewardAsset = "reward-asset"
	flagStakeVault  = "stake-vault"
	flagRewardVault = "reward-vault"
	flagRewardRate  = "reward-rate"
)

// InitPoolCmd creates the singleton pool document. Run once per deployment:
// ./staking-pool-service init-pool --admin ... --authority ... --config config.yml
func InitPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool",
		Short: "Initializes the staking pool ledger",
		Args:  cobra.ExactArgs(0),
		RunE:  initPool,
	}

	cmd.Flags().String(flagAdmin, "", "Identity allowed to change the reward rate")
	cmd.Flags().String(flagAuthority, "", "Identity owning both vault accounts at the bank")
	cmd.Flags().String(flagStakeAsset, "", "Asset ID participants stake")
	cmd.Flags().String(flagRewardAsset, "", "Asset ID rewards are paid in")
	cmd.Flags().String(flagStakeVault, "", "Bank account holding staked principal")
	cmd.Flags().String(flagRewardVault, "", "Bank account rewards are paid from")
	cmd.Flags().Uint64(flagRewardRate, 0, "Reward units per unit staked per day")

	for _, flag := range []string{
		flagAdmin, flagAuthority, flagStakeAsset, flagRewardAsset,
		flagStakeVault, flagRewardVault,
	} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	return cmd
}

func initPool(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	params := &services.InitializePoolParams{}
	flagTargets := map[string]*string{
		flagAdmin:       &params.Admin,
		flagAuthority:   &params.Authority,
		flagStakeAsset:  &params.StakeAssetID,
		flagRewardAsset: &params.RewardAssetID,
		flagStakeVault:  &params.StakeVault,
		flagRewardVault: &params.RewardVault,
	}
	for flag, target := range flagTargets {
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return err
		}
		*target = value
	}

	rewardRate, err := cmd.Flags().GetUint64(flagRewardRate)
	if err != nil {
		return err
	}
	params.RewardRate = rewardRate

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return err
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	bank := bankclient.NewClient(&cfg.Bank)
	srv := services.NewService(cfg, dbClient, bank, nil)

	if terr := srv.InitializePool(ctx, params); terr != nil {
		return terr
	}

	log.Ctx(ctx).Info().
		Str("admin", params.Admin).
		Uint64("reward_rate", params.RewardRate).
		Msg("pool initialized")
	return nil
}
