package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/genesis-reconciliation/internal/adapters/genesis"
	"github.com/kevin07696/genesis-reconciliation/internal/adapters/postgres"
	"github.com/kevin07696/genesis-reconciliation/internal/config"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	adminhandler "github.com/kevin07696/genesis-reconciliation/internal/handlers/admin"
	checkouthandler "github.com/kevin07696/genesis-reconciliation/internal/handlers/checkout"
	"github.com/kevin07696/genesis-reconciliation/internal/handlers/notification"
	"github.com/kevin07696/genesis-reconciliation/internal/services/action"
	"github.com/kevin07696/genesis-reconciliation/internal/services/checkout"
	"github.com/kevin07696/genesis-reconciliation/internal/services/consumer"
	"github.com/kevin07696/genesis-reconciliation/internal/services/cronlog"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/internal/services/reconciliation"
	"github.com/kevin07696/genesis-reconciliation/internal/services/relationship"
	"github.com/kevin07696/genesis-reconciliation/internal/services/subscription"
	"github.com/kevin07696/genesis-reconciliation/pkg/middleware"
	"github.com/kevin07696/genesis-reconciliation/pkg/observability"
	"github.com/kevin07696/genesis-reconciliation/pkg/resilience"
	"github.com/kevin07696/genesis-reconciliation/pkg/resourcemgmt"
	"github.com/kevin07696/genesis-reconciliation/pkg/shutdown"
	"github.com/kevin07696/genesis-reconciliation/pkg/timeutil"
	"go.uber.org/zap"
)

// Storefront texts written to the order history and shown to shoppers
const (
	textPaymentInitiated  = "Payment initiated"
	textPaymentPending    = "Payment is being processed"
	textPaymentSuccessful = "Payment successful"
	textPaymentFailed     = "Payment failed"
	textFailure           = "There was a problem processing your payment, please try again"
	textRecurringRefunded = "recurring fully refunded"
)

// serverDeps are the process-wide dependencies shared by every variant
type serverDeps struct {
	cfg         *config.Config
	pool        *pgxpool.Pool
	logger      *zap.Logger
	serviceLog  ports.Logger
	secrets     ports.SecretManagerAdapter
	health      *observability.HealthChecker
	rateLimiter *middleware.RateLimiter
	tracker     *shutdown.InFlightTracker
	timeouts    *resilience.TimeoutConfig
}

// variant is one wired payment module
type variant struct {
	prefix       string
	callback     http.Handler
	send         http.Handler
	admin        *adminhandler.Handler
	rateLimiter  *middleware.RateLimiter
	tracker      *shutdown.InFlightTracker
	gzip         func(http.Handler) http.Handler
	requireToken func(http.Handler) http.Handler
}

func (d *serverDeps) buildVariant(ctx context.Context, m *config.ModuleConfig) (*variant, error) {
	if err := resolveCredentials(ctx, d.secrets, m, d.logger); err != nil {
		return nil, err
	}

	gatewayCfg := genesis.DefaultConfig(genesis.Environment(m.Environment))
	gatewayCfg.Username = m.Username
	gatewayCfg.Password = m.Password
	gatewayCfg.Token = m.Token
	gateway := genesis.NewClient(gatewayCfg, d.logger.With(zap.String("module", m.Module)))
	d.health.Register("gateway_"+m.Module, gateway.Healthy)

	db := postgres.NewDBExecutor(d.pool)
	tables := postgres.ModuleTables(m.Module)
	storeTables := postgres.NewStoreTables(d.cfg.Store.TablePrefix)

	txRepo, err := postgres.NewTransactionRepository(db, tables)
	if err != nil {
		return nil, err
	}
	orders, err := postgres.NewOrderRepository(db, storeTables)
	if err != nil {
		return nil, err
	}
	recurringRepo, err := postgres.NewRecurringRepository(db, storeTables)
	if err != nil {
		return nil, err
	}
	cronRepo, err := postgres.NewCronLogRepository(db, tables)
	if err != nil {
		return nil, err
	}

	var locker ports.KeyLocker = resourcemgmt.NewKeyedMutex()
	if d.cfg.Store.AdvisoryLocks {
		locker = postgres.NewAdvisoryLocker(d.pool, m.Module)
	}

	store := ledger.NewStore(txRepo, m.Module, d.serviceLog)
	recurring := subscription.NewService(recurringRepo, orders, d.serviceLog)

	engineCfg := reconciliation.Config{
		SuccessComment:  textPaymentSuccessful,
		FailureComment:  textPaymentFailed,
		SuccessStatusID: m.SuccessStatusID,
		FailureStatusID: m.FailureStatusID,
		NotifyCustomer:  true,
	}
	common := checkout.Common{
		URLs: ports.ReturnURLs{
			Notification: m.NotificationURL,
			Success:      m.SuccessURL,
			Failure:      m.FailureURL,
			Cancel:       m.CancelURL,
		},
		Usage:              m.Usage,
		FailureText:        textFailure,
		ChallengeIndicator: m.ChallengeIndicator,
		ScaExemption:       m.ScaExemption,
		ScaExemptionAmount: m.ScaExemptionAmount,
		ThreeDS:            m.ThreeDS,
	}

	v := &variant{
		prefix:       strings.TrimPrefix(m.Module, "emerchantpay_"),
		rateLimiter:  d.rateLimiter,
		tracker:      d.tracker,
		gzip:         middleware.Gzip(d.logger),
		requireToken: adminhandler.RequireToken(d.cfg.Server.AdminToken, d.logger),
	}

	switch m.Module {
	case config.ModuleCheckout:
		consumerRepo, err := postgres.NewConsumerRepository(db, tables)
		if err != nil {
			return nil, err
		}
		engineCfg.Kind = ports.NotificationWPF
		engineCfg.AckUnlinked = true

		hosted := checkout.NewHosted(checkout.HostedConfig{
			Common:           common,
			Variants:         m.Variants,
			RecurringTypes:   m.RecurringRequestTypes(),
			InitiatedComment: textPaymentInitiated,
			StatusID:         m.OrderStatusID,
			Tokenization:     m.Tokenization,
		}, gateway, store, orders, consumer.NewService(consumerRepo, gateway, d.serviceLog), d.serviceLog)
		v.send = checkouthandler.NewHostedSendHandler(hosted, textFailure, d.logger)

	case config.ModuleDirect:
		engineCfg.Kind = ports.NotificationProcessing
		common.URLs.Pending = m.SuccessURL

		direct := checkout.NewDirect(checkout.DirectConfig{
			Common:          common,
			TransactionType: m.TransactionType(),
			RecurringType:   recurringType(m),
			SuccessURL:      m.SuccessURL,
			AsyncComment:    textPaymentPending,
			SuccessComment:  textPaymentSuccessful,
			FailureComment:  textPaymentFailed,
			AsyncStatusID:   m.AsyncStatusID,
			SuccessStatusID: m.SuccessStatusID,
			FailureStatusID: m.FailureStatusID,
		}, gateway, store, orders, recurring, d.serviceLog)
		v.send = checkouthandler.NewDirectSendHandler(direct, textFailure, d.logger)

	default:
		return nil, fmt.Errorf("unknown module %q", m.Module)
	}

	engine := reconciliation.NewEngine(engineCfg, gateway, store, orders, recurring, d.serviceLog)
	v.callback = notification.NewCallbackHandler(m.Module, engine, d.logger)

	orchestrator := action.NewOrchestrator(action.Config{
		Policy: relationship.Policy{
			Variants:       m.Variants,
			PartialCapture: m.PartialCapture,
			PartialRefund:  m.PartialRefund,
			Void:           m.Void,
		},
		DefaultUsage:           m.Usage,
		FailureText:            textFailure,
		RecurringRefundComment: textRecurringRefunded,
		RefundedStatusID:       m.RefundedStatusID,
		Timeouts:               d.timeouts,
	}, gateway, store, orders, recurring, locker, d.serviceLog)
	cron := cronlog.NewService(cronRepo, timeutil.SystemClock{}, d.serviceLog)
	v.admin = adminhandler.NewHandler(m.Module, orchestrator, cron, d.logger)

	return v, nil
}

// recurringType is the type the direct variant charges subscription orders with
func recurringType(m *config.ModuleConfig) domain.TransactionType {
	if len(m.RecurringTypes) == 0 {
		return ""
	}
	return domain.TransactionType(m.RecurringTypes[0])
}

// register mounts the public and admin routes of the variant, e.g. /checkout/callback
func (v *variant) register(mux *http.ServeMux) {
	public := func(route string, h http.Handler) {
		mux.Handle("POST "+route, observability.HTTPMiddleware(route, v.rateLimiter.Middleware(h)))
	}
	public("/"+v.prefix+"/callback", v.callback)
	public("/"+v.prefix+"/send", v.send)

	admin := func(method, route string, h http.HandlerFunc, tracked bool) {
		var handler http.Handler = h
		if tracked {
			handler = v.tracker.Middleware(handler)
		}
		handler = middleware.Chain(handler, v.requireToken, v.gzip)
		mux.Handle(method+" "+route, observability.HTTPMiddleware(route, handler))
	}
	base := "/admin/" + v.prefix
	admin(http.MethodPost, base+"/action", v.admin.Action, true)
	admin(http.MethodGet, base+"/orders/{order_id}/transactions", v.admin.Transactions, false)
	admin(http.MethodGet, base+"/cron", v.admin.Cron, false)
}
