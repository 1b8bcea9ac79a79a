package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/services"
	"github.com/stakevault-io/staking-pool-service/internal/types"
)

// accountIDHeader carries the caller identity. Authentication happens in
// front of this service; the header is trusted as-is.
const accountIDHeader = "X-Account-Id"

type stakeRequest struct {
	FromAccount string `json:"from_account"`
	Amount      uint64 `json:"amount"`
}

type unstakeRequest struct {
	ToAccount string `json:"to_account"`
	Amount    uint64 `json:"amount"`
}

type claimRewardsRequest struct {
	ToAccount string `json:"to_account"`
}

type updateRewardRateRequest struct {
	RewardRate uint64 `json:"reward_rate"`
}

type poolResponse struct {
	Admin          string `json:"admin"`
	Authority      string `json:"authority"`
	RewardRate     uint64 `json:"reward_rate"`
	TotalStaked    uint64 `json:"total_staked"`
	LastUpdateTime int64  `json:"last_update_time"`
	StakeAssetID   string `json:"stake_asset_id"`
	RewardAssetID  string `json:"reward_asset_id"`
	StakeVault     string `json:"stake_vault"`
	RewardVault    string `json:"reward_vault"`
}

type positionResponse struct {
	Owner            string `json:"owner"`
	StakeAmount      uint64 `json:"stake_amount"`
	RewardDebt       uint64 `json:"reward_debt"`
	LastStakeTime    int64  `json:"last_stake_time"`
	PendingReward    uint64 `json:"pending_reward"`
	ClaimableRewards uint64 `json:"claimable_rewards"`
}

type claimRewardsResponse struct {
	RewardAmount uint64 `json:"reward_amount"`
}

type updateRewardRateResponse struct {
	RewardRate uint64 `json:"reward_rate"`
}

type statsResponse struct {
	TotalStaked     uint64 `json:"total_staked"`
	ActivePositions uint64 `json:"active_positions"`
	LastUpdated     int64  `json:"last_updated"`
}

func newPoolResponse(pool *model.PoolDocument) poolResponse {
	return poolResponse{
		Admin:          pool.Admin,
		Authority:      pool.Authority,
		RewardRate:     pool.RewardRate,
		TotalStaked:    pool.TotalStaked,
		LastUpdateTime: pool.LastUpdateTime,
		StakeAssetID:   pool.StakeAssetID,
		RewardAssetID:  pool.RewardAssetID,
		StakeVault:     pool.StakeVault,
		RewardVault:    pool.RewardVault,
	}
}

func newPositionResponse(position *services.PositionDetails) positionResponse {
	return positionResponse{
		Owner:            position.Owner,
		StakeAmount:      position.StakeAmount,
		RewardDebt:       position.RewardDebt,
		LastStakeTime:    position.LastStakeTime,
		PendingReward:    position.PendingReward,
		ClaimableRewards: position.ClaimableRewards,
	}
}

func (a *Server) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Ping(r.Context()); err != nil {
		writeError(w, r, types.NewInternalServiceError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, "ok")
}

func (a *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, terr := a.service.GetPool(r.Context())
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, newPoolResponse(pool))
}

func (a *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	position, terr := a.service.GetPosition(r.Context(), owner)
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, newPositionResponse(position))
}

func (a *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, terr := a.service.GetStats(r.Context())
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, statsResponse{
		TotalStaked:     stats.TotalStaked,
		ActivePositions: stats.ActivePositions,
		LastUpdated:     stats.LastUpdated,
	})
}

func (a *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	owner, terr := callerID(r)
	if terr != nil {
		writeError(w, r, terr)
		return
	}

	var req stakeRequest
	if terr := decodeBody(r, &req); terr != nil {
		writeError(w, r, terr)
		return
	}

	if terr := a.service.Stake(r.Context(), owner, req.FromAccount, req.Amount); terr != nil {
		writeError(w, r, terr)
		return
	}

	position, terr := a.service.GetPosition(r.Context(), owner)
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, newPositionResponse(position))
}

func (a *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	owner, terr := callerID(r)
	if terr != nil {
		writeError(w, r, terr)
		return
	}

	var req unstakeRequest
	if terr := decodeBody(r, &req); terr != nil {
		writeError(w, r, terr)
		return
	}

	if terr := a.service.Unstake(r.Context(), owner, req.ToAccount, req.Amount); terr != nil {
		writeError(w, r, terr)
		return
	}

	position, terr := a.service.GetPosition(r.Context(), owner)
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, newPositionResponse(position))
}

func (a *Server) handleClaimRewards(w http.ResponseWriter, r *http.Request) {
	owner, terr := callerID(r)
	if terr != nil {
		writeError(w, r, terr)
		return
	}

	var req claimRewardsRequest
	if terr := decodeBody(r, &req); terr != nil {
		writeError(w, r, terr)
		return
	}

	amount, terr := a.service.ClaimRewards(r.Context(), owner, req.ToAccount)
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, claimRewardsResponse{RewardAmount: amount})
}

func (a *Server) handleUpdateRewardRate(w http.ResponseWriter, r *http.Request) {
	caller, terr := callerID(r)
	if terr != nil {
		writeError(w, r, terr)
		return
	}

	var req updateRewardRateRequest
	if terr := decodeBody(r, &req); terr != nil {
		writeError(w, r, terr)
		return
	}

	if terr := a.service.UpdateRewardRate(r.Context(), caller, req.RewardRate); terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, r, http.StatusOK, updateRewardRateResponse{RewardRate: req.RewardRate})
}

func callerID(r *http.Request) (string, *types.Error) {
	id := r.Header.Get(accountIDHeader)
	if id == "" {
		return "", types.NewErrorWithMsg(
			http.StatusForbidden, types.Unauthorized,
			fmt.Sprintf("missing %s header", accountIDHeader),
		)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) *types.Error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return types.NewValidationFailedError(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	ErrorCode types.ErrorCode `json:"error_code"`
	Message   string          `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: payload}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, terr *types.Error) {
	if terr.StatusCode >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(terr).Msg("request failed")
	} else {
		log.Ctx(r.Context()).Debug().Err(terr).
			Str("error_code", terr.ErrorCode.String()).
			Msg("request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(terr.StatusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		ErrorCode: terr.ErrorCode,
		Message:   terr.Error(),
	}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to encode error body")
	}
}
