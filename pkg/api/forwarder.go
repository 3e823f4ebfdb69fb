package api

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	fwdao "github.com/untron/intents-indexer/pkg/forwarder/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

func forwarderInstanceFromPath(r *http.Request) (uint64, common.Address, bool) {
	chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		return 0, common.Address{}, false
	}
	contract, ok := parseAddress(chi.URLParam(r, "contract"))
	if !ok {
		return 0, common.Address{}, false
	}
	return chainID, contract, true
}

func (s *Server) handleForwarderOwnership(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}

	row, err := store.GetCurrent[fwdao.Ownership](r.Context(), s.db, instanceConds(chainID, contract))
	if err != nil {
		s.logger.Error("reading forwarder ownership failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no current ownership row")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"old_owner": common.BytesToAddress(row.OldOwner).Hex(),
		"new_owner": common.BytesToAddress(row.NewOwner).Hex(),
		"since_seq": row.ValidFromSeq,
	})
}

func (s *Server) handleForwarderBridgers(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}

	row, err := store.GetCurrent[fwdao.Bridgers](r.Context(), s.db, instanceConds(chainID, contract))
	if err != nil {
		s.logger.Error("reading forwarder bridgers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no current bridgers row")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"usdt_bridger": common.BytesToAddress(row.USDTBridger).Hex(),
		"usdc_bridger": common.BytesToAddress(row.USDCBridger).Hex(),
		"since_seq":    row.ValidFromSeq,
	})
}

func (s *Server) handleForwarderQuoter(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}
	tokenIn, ok := parseAddress(r.URL.Query().Get("token_in"))
	if !ok {
		writeError(w, http.StatusBadRequest, "token_in query parameter required")
		return
	}

	conds := append(instanceConds(chainID, contract), store.Eq("token_in", tokenIn.Bytes()))
	row, err := store.GetCurrent[fwdao.Quoter](r.Context(), s.db, conds)
	if err != nil {
		s.logger.Error("reading forwarder quoter failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no current quoter row")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token_in":  tokenIn.Hex(),
		"quoter":    common.BytesToAddress(row.Quoter).Hex(),
		"since_seq": row.ValidFromSeq,
	})
}

func (s *Server) handleForwarderReceiver(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}
	salt, ok := parseHash(chi.URLParam(r, "receiverSalt"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receiver salt")
		return
	}

	conds := append(instanceConds(chainID, contract), store.Eq("receiver_salt", salt.Bytes()))
	row, err := store.GetCurrent[fwdao.Receiver](r.Context(), s.db, conds)
	if err != nil {
		s.logger.Error("reading forwarder receiver failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no current receiver row")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"receiver_salt":  salt.Hex(),
		"receiver":       common.BytesToAddress(row.Receiver).Hex(),
		"implementation": common.BytesToAddress(row.Implementation).Hex(),
		"since_seq":      row.ValidFromSeq,
	})
}

func forwardToJSON(row *fwdao.Forward) map[string]any {
	out := map[string]any{
		"forward_id":             common.Bytes2Hex(row.ForwardID),
		"base_receiver_salt":     common.BytesToHash(row.BaseReceiverSalt).Hex(),
		"forward_salt":           common.BytesToHash(row.ForwardSalt).Hex(),
		"intent_hash":            common.BytesToHash(row.IntentHash).Hex(),
		"target_chain":           row.TargetChain,
		"beneficiary":            common.BytesToAddress(row.Beneficiary).Hex(),
		"beneficiary_claim_only": row.BeneficiaryClaimOnly,
		"balance_param":          amount(row.BalanceParam),
		"token_in":               common.BytesToAddress(row.TokenIn).Hex(),
		"token_out":              common.BytesToAddress(row.TokenOut).Hex(),
		"receiver_used":          common.BytesToAddress(row.ReceiverUsed).Hex(),
		"ephemeral_receiver":     row.EphemeralReceiver,
		"started_at":             row.StartedAt,
		"since_seq":              row.ValidFromSeq,
	}
	if row.CompletedAt != nil {
		out["completed_at"] = *row.CompletedAt
	}
	if row.SettledLocally != nil {
		out["settled_locally"] = *row.SettledLocally
	}
	if row.AmountPulled != nil {
		out["amount_pulled"] = amount(*row.AmountPulled)
	}
	if row.AmountForwarded != nil {
		out["amount_forwarded"] = amount(*row.AmountForwarded)
	}
	return out
}

// handleForwards lists cross-chain forwards targeting the pool chain.
func (s *Server) handleForwards(w http.ResponseWriter, r *http.Request) {
	inst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	var rows []*fwdao.Forward
	err = s.db.NewSelect().
		Model(&rows).
		Where("valid_to_seq IS NULL").
		Where("target_chain = ?", inst.ChainID).
		OrderExpr("started_at ASC").
		Scan(r.Context())
	if err != nil {
		s.logger.Error("listing forwards failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, forwardToJSON(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	chainID, contract, ok := forwarderInstanceFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chain id or contract address")
		return
	}
	row, err := s.currentForward(r, chainID, contract, chi.URLParam(r, "forwardID"))
	if err != nil {
		s.logger.Error("reading forward failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "forward not found")
		return
	}
	writeJSON(w, http.StatusOK, forwardToJSON(row))
}

func (s *Server) currentForward(r *http.Request, chainID uint64, contract common.Address, forwardIDHex string) (*fwdao.Forward, error) {
	forwardID, ok := parseHash(forwardIDHex)
	if !ok {
		return nil, nil
	}
	conds := append(instanceConds(chainID, contract), store.Eq("forward_id", forwardID.Bytes()))
	return store.GetCurrent[fwdao.Forward](r.Context(), s.db, conds)
}
