// Command authorityd is the composition root: it loads config, builds the
// logger, connects to PostgreSQL and runs migrations, wires C1–C10 into a
// server.Context, starts the dual-rate tick scheduler and the periodic
// sweeps, and runs the TCP transport until SIGINT/SIGTERM (spec §5).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openfrontier/authority/internal/config"
	gonet "github.com/openfrontier/authority/internal/net"
	"github.com/openfrontier/authority/internal/persist"
	"github.com/openfrontier/authority/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.Path("config/server.toml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting authorityd", zap.String("server", cfg.Server.Name), zap.Int("id", cfg.Server.ID))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := persist.NewDB(ctx, cfg.Database, log)
	cancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	log.Info("database connected")

	migCtx, migCancel := context.WithTimeout(context.Background(), 60*time.Second)
	err = persist.RunMigrations(migCtx, db.Pool)
	migCancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	accountRepo := persist.NewAccountRepo(db)
	journalRepo := persist.NewJournalRepo(db)

	if err := os.MkdirAll(cfg.Server.SaveDir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	c := server.New(log, cfg.Server.SaveDir)
	c.WireMetrics()
	c.StartScheduler()

	if err := replayJournal(c, journalRepo, log); err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	netServer, err := gonet.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	sessions := newSessionRegistry()

	dispatcher := gonet.NewDispatcher(log)
	registerHandlers(dispatcher, c, accountRepo, journalRepo, sessions, log)

	runCtx, runCancel := context.WithCancel(context.Background())
	go c.Scheduler.Run(runCtx)
	go acceptSessions(runCtx, netServer, dispatcher, c, sessions, log)
	go flushOutboundState(runCtx, c, sessions, cfg.Network.MainTickRate)

	cleanupTicker := time.NewTicker(30 * time.Second)
	defer cleanupTicker.Stop()
	saveTicker := time.NewTicker(60 * time.Second)
	defer saveTicker.Stop()
	diagnosticsTicker := time.NewTicker(5 * time.Second)
	defer diagnosticsTicker.Stop()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("ready", zap.String("bind", netServer.Addr().String()))

	for {
		select {
		case <-cleanupTicker.C:
			c.Cleanup()
		case <-saveTicker.C:
			if err := journalDirtyPersistent(c, journalRepo); err != nil {
				log.Error("journal dirty persistent state", zap.Error(err))
			}
			c.SaveAllDirty()
		case <-diagnosticsTicker.C:
			if err := c.FlushDiagnostics(cfg.Server.LogDir); err != nil {
				log.Error("flush diagnostics", zap.Error(err))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			c.SaveAllDirty()
			runCancel()
			netServer.Shutdown()
			log.Info("shutdown complete")
			return nil
		}
	}
}

// acceptSessions hands each newly connected session to the dispatcher's read
// loop and reacts to disconnects reported on the dead-sessions channel:
// an authenticated player's session is preserved for reconnection (spec
// §4.9) rather than torn down immediately, so a flaky client can resume
// within the recovery window instead of losing world state outright.
func acceptSessions(ctx context.Context, netServer *gonet.Server, dispatcher *gonet.Dispatcher, c *server.Context, sessions *sessionRegistry, log *zap.Logger) {
	byID := make(map[uint64]*gonet.Session)
	for {
		select {
		case sess := <-netServer.NewSessions():
			byID[sess.ID] = sess
			server.RecordConnection(1)
			c.Diagnostics.Connection("", fmt.Sprintf("session %d connected from %s", sess.ID, sess.IP))
			go dispatcher.Run(sess, ctx.Done())
		case id := <-netServer.DeadSessions():
			sess, ok := byID[id]
			delete(byID, id)
			server.RecordConnection(-1)
			if ok && sess.PlayerID != "" {
				sessions.Remove(sess.PlayerID)
				c.PreserveSession(sess.PlayerID, nil)
				c.Diagnostics.Connection(sess.PlayerID, "disconnected, preserved for reconnect")
				log.Info("session disconnected, preserved for reconnect", zap.String("player", sess.PlayerID))
			}
		case <-ctx.Done():
			return
		}
	}
}

// flushOutboundState drains the replicator's dirty transient set and
// pending events once per main tick and broadcasts them to every
// connected session (spec §4.9's GetStateUpdatesForClient, applied
// broadcast-style since the dirty set isn't partitioned per client).
func flushOutboundState(ctx context.Context, c *server.Context, sessions *sessionRegistry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			update := c.GetStateUpdatesForClient(64)
			if len(update.Transient) == 0 && len(update.Events) == 0 {
				continue
			}
			env := gonet.Envelope{
				Type:      gonet.MsgStateUpdate,
				Timestamp: update.Timestamp.UnixMilli(),
				Payload: map[string]any{
					"transient": update.Transient,
					"events":    update.Events,
				},
			}
			for _, sess := range sessions.All() {
				sess.Send(env)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
