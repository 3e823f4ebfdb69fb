// Package api implements the read-only HTTP views over the projection
// tables: current Ownership/RecommendedFee, intent lists by derived
// category, cross-chain forwards, and the pool/forwarder receiver-intent
// correlation.
package api

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/auth"
	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/store"
)

// TimeToFill is the window after which a claimed-but-unsolved intent becomes
// unclaimable.
const TimeToFill = 120 * time.Second

// Server holds the dependencies the read API's handlers close over.
type Server struct {
	db       *bun.DB
	registry *store.Registry
	logger   *zap.Logger
	admin    *auth.JWTValidator
}

// NewServer builds a Server backed by db, with its admin JWT validator built
// from cfg. When cfg.AdminJWKSURL is empty the validator is left
// unconfigured, in which case the admin routes reject every request.
func NewServer(db *bun.DB, logger *zap.Logger, cfg config.APIConfig) *Server {
	return &Server{
		db:       db,
		registry: store.NewRegistry(db),
		logger:   logger,
		admin:    auth.NewJWTValidator(cfg.AdminJWKSURL, cfg.AdminIssuer),
	}
}

// NewRouter builds the chi.Router exposing every read endpoint.
func (s *Server) NewRouter(requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/pool", func(r chi.Router) {
		r.Get("/ownership", s.handlePoolOwnership)
		r.Get("/fee", s.handlePoolFee)
		r.Get("/intents", s.handlePoolIntents)
		r.Get("/intents/{intentID}", s.handlePoolIntent)
	})

	r.Route("/forwarders/{chainID}/{contract}", func(r chi.Router) {
		r.Get("/ownership", s.handleForwarderOwnership)
		r.Get("/bridgers", s.handleForwarderBridgers)
		r.Get("/quoter", s.handleForwarderQuoter)
		r.Get("/receivers/{receiverSalt}", s.handleForwarderReceiver)
	})

	r.Get("/forwards", s.handleForwards)
	r.Get("/forwards/{chainID}/{contract}/{forwardID}", s.handleForward)
	r.Get("/forwards/{chainID}/{contract}/{forwardID}/expected-receiver-intent", s.handleExpectedReceiverIntent)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/instances", s.handleListInstances)
	})

	return r
}

func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseHash(s string) (common.Hash, bool) {
	if len(s) < 2 || s[:2] != "0x" {
		return common.Hash{}, false
	}
	return common.HexToHash(s), true
}
