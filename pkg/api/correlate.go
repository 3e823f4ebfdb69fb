package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	pooldao "github.com/untron/intents-indexer/pkg/pool/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

// handleExpectedReceiverIntent correlates a cross-chain Forward to the pool
// receiver intent it is expected to settle, matching on
// (intent_hash, forward_salt, token_out, balance_param).
func (s *Server) handleExpectedReceiverIntent(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}

	forward, err := s.currentForward(r, chainID, contract, chi.URLParam(r, "forwardID"))
	if err != nil {
		s.logger.Error("reading forward failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if forward == nil {
		writeError(w, http.StatusNotFound, "forward not found")
		return
	}

	poolInst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	conds := append(instanceConds(poolInst.ChainID, poolInst.ContractAddress),
		store.Eq("intent_hash", forward.IntentHash),
		store.Eq("forward_salt", forward.ForwardSalt),
		store.Eq("token", forward.TokenOut),
		store.Eq("amount_param", forward.BalanceParam),
	)

	row, err := store.GetCurrent[pooldao.ReceiverIntentParams](r.Context(), s.db, conds)
	if err != nil {
		s.logger.Error("correlating receiver intent failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no matching receiver intent")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"intent_id":      row.IntentID,
		"forwarder":      common.BytesToAddress(row.Forwarder).Hex(),
		"to_tron_evm":    common.BytesToAddress(row.ToTronEVM).Hex(),
		"to_tron_base58": row.ToTronBase58,
		"forward_salt":   common.BytesToHash(row.ForwardSalt).Hex(),
		"token":          common.BytesToAddress(row.Token).Hex(),
		"amount_param":   amount(row.AmountParam),
		"intent_hash":    common.BytesToHash(row.IntentHash).Hex(),
		"since_seq":      row.ValidFromSeq,
	})
}
