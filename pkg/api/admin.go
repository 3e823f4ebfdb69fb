package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// requireAdmin gates a route behind the configured admin JWKS validator.
// With no AdminJWKSURL configured, every request is rejected rather than
// silently let through.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.admin == nil || !s.admin.IsConfigured() {
			writeError(w, http.StatusServiceUnavailable, "admin auth not configured")
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if _, err := s.admin.ValidateToken(token); err != nil {
			s.logger.Warn("admin token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleListInstances returns every configured projection instance.
func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := s.registry.ListInstances(r.Context())
	if err != nil {
		s.logger.Error("listing instances failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]map[string]any, 0, len(instances))
	for _, inst := range instances {
		out = append(out, map[string]any{
			"stream":           string(inst.Stream),
			"chain_id":         inst.ChainID,
			"contract_address": inst.ContractAddress.Hex(),
			"genesis_tip":      inst.GenesisTip.Hex(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
