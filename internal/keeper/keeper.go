/*

Keeper runs the periodic maintenance cycle: process a report for every
strategy in the default queue (the vault's own idle balance included), steer
each strategy's debt toward its target allocation, and persist the outcomes
under one cycle id. Every cycle is independent; a failed step is logged and
skipped, never retried within the cycle.

*/

package keeper

import (
	"errors"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/logger"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/state"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/vault"
)

const maxBps = 10_000

// Config wires a keeper to a vault.
type Config struct {
	Vault *vault.Vault
	// Caller is the identity the keeper acts under. It needs the reporter
	// and debt manager roles.
	Caller string
	// CronSpec schedules RunCycle, e.g. "@every 10m".
	CronSpec string
	// MaxLossBps is the loss tolerance passed to debt updates.
	MaxLossBps uint16
	// Persist controls whether cycle outcomes are written to the database.
	Persist bool
}

// Keeper drives the report-and-rebalance cycle.
type Keeper struct {
	mu sync.Mutex

	vault      *vault.Vault
	caller     string
	cronSpec   string
	maxLossBps uint16
	persist    bool

	// targetBps maps strategy address to its share of total assets.
	targetBps map[string]uint16

	cron *cron.Cron
	log  zerolog.Logger
}

// New validates the configuration and creates a stopped keeper.
func New(cfg Config) (*Keeper, error) {
	if cfg.Vault == nil {
		return nil, errors.New("keeper requires a vault")
	}
	if cfg.Caller == "" {
		return nil, errors.New("keeper requires a caller identity")
	}
	if cfg.CronSpec == "" {
		cfg.CronSpec = "@every 10m"
	}
	if cfg.MaxLossBps > maxBps {
		return nil, errors.New("keeper max loss exceeds 10000 basis points")
	}
	return &Keeper{
		vault:      cfg.Vault,
		caller:     cfg.Caller,
		cronSpec:   cfg.CronSpec,
		maxLossBps: cfg.MaxLossBps,
		persist:    cfg.Persist,
		targetBps:  make(map[string]uint16),
		log:        logger.GetForComponent("keeper"),
	}, nil
}

// SetTargetAllocationBps sets one strategy's target share of total assets.
// The combined targets may not exceed 10000 basis points; zero removes the
// entry.
func (k *Keeper) SetTargetAllocationBps(strategyAddr string, bps uint16) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if strategyAddr == "" {
		return errors.New("strategy address cannot be empty")
	}
	total := int(bps)
	for addr, b := range k.targetBps {
		if addr != strategyAddr {
			total += int(b)
		}
	}
	if total > maxBps {
		return errors.New("combined target allocations exceed 10000 basis points")
	}
	if bps == 0 {
		delete(k.targetBps, strategyAddr)
	} else {
		k.targetBps[strategyAddr] = bps
	}
	k.log.Info().Str("strategy", strategyAddr).Uint16("bps", bps).Msg("Target allocation updated")
	return nil
}

// Start schedules the cycle on the configured cron spec.
func (k *Keeper) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cron != nil {
		return errors.New("keeper already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(k.cronSpec, func() {
		if err := k.RunCycle(); err != nil {
			k.log.Error().Err(err).Msg("Keeper cycle failed")
		}
	}); err != nil {
		return err
	}
	c.Start()
	k.cron = c
	k.log.Info().Str("cronSpec", k.cronSpec).Msg("Keeper started")
	return nil
}

// Stop halts the schedule. A cycle already running finishes.
func (k *Keeper) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cron != nil {
		k.cron.Stop()
		k.cron = nil
		k.log.Info().Msg("Keeper stopped")
	}
}

// RunCycle executes one full report-and-rebalance pass. Exposed so operators
// can trigger a cycle outside the schedule.
func (k *Keeper) RunCycle() error {
	cycleID := uuid.New()
	log := k.log.With().Str("cycle_id", cycleID.String()).Logger()
	log.Info().Msg("Keeper cycle starting")

	queue := k.vault.DefaultQueue()

	// Report the idle balance first so airdropped surplus is booked before
	// allocation targets are computed.
	k.processOne(log, cycleID, k.vault.Address())
	for _, addr := range queue {
		k.processOne(log, cycleID, addr)
	}

	k.rebalance(log, cycleID, queue)

	if k.persist {
		if _, err := state.SaveVaultSnapshot(cycleID, k.vault.Snapshot()); err != nil {
			log.Error().Err(err).Msg("Failed to persist vault snapshot")
		}
	}

	log.Info().Msg("Keeper cycle finished")
	return nil
}

func (k *Keeper) processOne(log zerolog.Logger, cycleID uuid.UUID, strategyAddr string) {
	result, err := k.vault.ProcessReport(k.caller, strategyAddr)
	if err != nil {
		log.Error().Err(err).Str("strategy", strategyAddr).Msg("Report processing failed")
		return
	}
	if k.persist {
		if _, err := state.SaveStrategyReport(cycleID, result); err != nil {
			log.Error().Err(err).Str("strategy", strategyAddr).Msg("Failed to persist strategy report")
		}
	}
}

func (k *Keeper) rebalance(log zerolog.Logger, cycleID uuid.UUID, queue []string) {
	k.mu.Lock()
	targets := make(map[string]uint16, len(k.targetBps))
	for addr, bps := range k.targetBps {
		targets[addr] = bps
	}
	maxLoss := k.maxLossBps
	k.mu.Unlock()

	totalAssets := k.vault.TotalAssets()
	for _, addr := range queue {
		bps := targets[addr]
		target := totalAssets.Mul(sdkmath.NewInt(int64(bps))).Quo(sdkmath.NewInt(maxBps))

		before, ok := k.vault.StrategyRecordOf(addr)
		if !ok {
			continue
		}
		newDebt, err := k.vault.UpdateDebt(k.caller, addr, target, maxLoss)
		if err != nil {
			if errors.Is(err, vault.ErrDebtUnchanged) {
				log.Debug().Str("strategy", addr).Msg("Debt already at target")
				continue
			}
			log.Error().Err(err).Str("strategy", addr).Msg("Debt update failed")
			continue
		}

		moved := newDebt.Sub(before.CurrentDebt)
		direction := types.DebtIncrease
		if moved.IsNegative() {
			moved = moved.Neg()
			direction = types.DebtDecrease
		} else if moved.IsZero() {
			direction = types.DebtUnchanged
		}
		receipt := types.DebtReceipt{
			Strategy:  addr,
			Requested: target,
			NewDebt:   newDebt,
			Moved:     moved,
			Direction: direction,
			Timestamp: time.Now().UTC(),
		}
		if k.persist {
			if _, err := state.SaveDebtReceipt(cycleID, receipt); err != nil {
				log.Error().Err(err).Str("strategy", addr).Msg("Failed to persist debt receipt")
			}
		}
	}
}
