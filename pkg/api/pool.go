package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/engine"
	pooldao "github.com/untron/intents-indexer/pkg/pool/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

// poolInstance resolves the configured pool singleton's instance key. The
// pool stream has exactly one configured instance system-wide.
func (s *Server) poolInstance(ctx context.Context) (engine.InstanceKey, error) {
	instances, err := s.registry.ListInstances(ctx)
	if err != nil {
		return engine.InstanceKey{}, err
	}
	for _, inst := range instances {
		if inst.Stream == engine.StreamPool {
			return engine.InstanceKey{Stream: engine.StreamPool, ChainID: inst.ChainID, ContractAddress: inst.ContractAddress}, nil
		}
	}
	return engine.InstanceKey{}, fmt.Errorf("pool instance not configured")
}

func instanceConds(chainID uint64, contract common.Address) []store.WhereCond {
	return []store.WhereCond{
		store.Eq("chain_id", chainID),
		store.Eq("contract_address", contract.Bytes()),
	}
}

func (s *Server) handlePoolOwnership(w http.ResponseWriter, r *http.Request) {
	inst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	row, err := store.GetCurrent[pooldao.Ownership](r.Context(), s.db, instanceConds(inst.ChainID, inst.ContractAddress))
	if err != nil {
		s.logger.Error("reading pool ownership failed", zap.Error(err))
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

func (s *Server) handlePoolFee(w http.ResponseWriter, r *http.Request) {
	inst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	row, err := store.GetCurrent[pooldao.RecommendedFee](r.Context(), s.db, instanceConds(inst.ChainID, inst.ContractAddress))
	if err != nil {
		s.logger.Error("reading pool fee failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no current fee row")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fee_ppm":   row.FeePPM,
		"fee_flat":  amount(row.FeeFlat),
		"since_seq": row.ValidFromSeq,
	})
}

func intentToJSON(row *pooldao.Intent) map[string]any {
	out := map[string]any{
		"intent_id":           row.IntentID,
		"creator":             common.BytesToAddress(row.Creator).Hex(),
		"intent_type":         row.IntentType,
		"escrow_token":        common.BytesToAddress(row.EscrowToken).Hex(),
		"escrow_amount":       amount(row.EscrowAmount),
		"refund_beneficiary":  common.BytesToAddress(row.RefundBeneficiary).Hex(),
		"deadline":            row.Deadline,
		"solved":              row.Solved,
		"funded":              row.Funded,
		"settled":             row.Settled,
		"closed":              row.Closed,
		"since_seq":           row.ValidFromSeq,
	}
	if row.Solver != nil {
		out["solver"] = common.BytesToAddress(row.Solver).Hex()
	}
	if row.SolverClaimedAt != nil {
		out["solver_claimed_at"] = *row.SolverClaimedAt
	}
	if row.TronTxID != nil {
		out["tron_tx_id"] = *row.TronTxID
	}
	if row.TronBlockNumber != nil {
		out["tron_block_number"] = *row.TronBlockNumber
	}
	return out
}

// handlePoolIntents lists current intents filtered by the derived category
// named in ?status=. Valid values: open, claimable, unclaimable, settleable,
// closable, waiting_funding.
func (s *Server) handlePoolIntents(w http.ResponseWriter, r *http.Request) {
	inst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	status := r.URL.Query().Get("status")
	now := time.Now().Unix()

	q := s.db.NewSelect().
		Model((*pooldao.Intent)(nil)).
		Where("valid_to_seq IS NULL").
		Where("chain_id = ?", inst.ChainID).
		Where("contract_address = ?", inst.ContractAddress.Bytes())

	switch status {
	case "", "open":
		q = q.Where("closed = false").Where("deadline > ?", now)
	case "claimable":
		q = q.Where("closed = false").Where("solver IS NULL").Where("deadline > ?", now)
	case "unclaimable":
		cutoff := now - int64(TimeToFill.Seconds())
		q = q.Where("closed = false").
			Where("solved = false").
			Where("solver IS NOT NULL").
			Where("solver_claimed_at IS NOT NULL").
			Where("solver_claimed_at <= ?", cutoff)
	case "settleable":
		q = q.Where("closed = false").Where("solved = true").Where("funded = true").Where("settled = false")
	case "closable":
		q = q.Where("closed = false").
			Where("deadline <= ?", now).
			Where("NOT (solved = true AND funded = true AND settled = false)")
	case "waiting_funding":
		q = q.Where("closed = false").Where("solved = true").Where("funded = false")
	default:
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	var rows []*pooldao.Intent
	if err := q.OrderExpr("deadline ASC").Scan(r.Context(), &rows); err != nil {
		s.logger.Error("listing pool intents failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, intentToJSON(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePoolIntent(w http.ResponseWriter, r *http.Request) {
	inst, err := s.poolInstance(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, "pool not configured")
		return
	}

	intentID := chi.URLParam(r, "intentID")
	conds := append(instanceConds(inst.ChainID, inst.ContractAddress), store.Eq("intent_id", intentID))
	row, err := store.GetCurrent[pooldao.Intent](r.Context(), s.db, conds)
	if err != nil {
		s.logger.Error("reading pool intent failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "intent not found")
		return
	}
	writeJSON(w, http.StatusOK, intentToJSON(row))
}
