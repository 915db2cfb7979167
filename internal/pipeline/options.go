package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// OptionsConfig selects the underlyings an options run fetches.
type OptionsConfig struct {
	Underlyings []common.Ticker
	Batch       httpclient.BatchOptions
}

// OptionsPipeline fetches contracts and stores them as per-expiration chains.
type OptionsPipeline struct {
	config   OptionsConfig
	provider interfaces.OptionsProvider
	chains   interfaces.OptionsStorage
	validate *validator.Validate
	ledger   *ledger
	clock    Clock
	logger   arbor.ILogger
}

// NewOptionsPipeline creates an options orchestrator.
func NewOptionsPipeline(config OptionsConfig, provider interfaces.OptionsProvider, storage interfaces.StorageManager, clock Clock, logger arbor.ILogger) *OptionsPipeline {
	return &OptionsPipeline{
		config:   config,
		provider: provider,
		chains:   storage.OptionsStorage(),
		validate: validator.New(),
		ledger: &ledger{
			domain: models.DomainOptions,
			runs:   storage.RunStorage(),
			clock:  clock,
			logger: logger,
		},
		clock:  clock,
		logger: logger,
	}
}

// RunOptionsIngestion performs one options cycle and returns the recorded run.
func (p *OptionsPipeline) RunOptionsIngestion(ctx context.Context) (*models.IngestionRun, error) {
	run, err := p.ledger.start(ctx)
	if err != nil {
		return nil, err
	}

	err = p.ingest(ctx, run)
	return run, p.ledger.finish(ctx, run, err)
}

func (p *OptionsPipeline) ingest(ctx context.Context, run *models.IngestionRun) error {
	now := p.clock.Now()
	today := startOfDay(now)

	jobs := make([]httpclient.Job[[]models.OptionsContract], 0, len(p.config.Underlyings))
	for _, underlying := range p.config.Underlyings {
		underlying := underlying
		jobs = append(jobs, httpclient.Job[[]models.OptionsContract]{
			Name: p.provider.Name() + " options " + underlying.Code,
			Run: func(ctx context.Context) (*[]models.OptionsContract, error) {
				contracts, err := p.provider.FetchContracts(ctx, underlying.String(), today)
				if err != nil {
					return nil, err
				}
				for i := range contracts {
					contracts[i].Underlying = underlying.Code
				}
				return &contracts, nil
			},
		})
	}
	run.Requested = len(jobs)

	results := httpclient.RunBatched(ctx, jobs, p.config.Batch, p.logger)
	stats := httpclient.Stats(results)
	run.Failed = stats.Failed

	if err := outage(stats.Total, stats.Failed); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var contracts []models.OptionsContract
	for _, batch := range results {
		if batch != nil {
			contracts = append(contracts, *batch...)
		}
	}
	contracts = validRecords(p.validate, p.logger, "options contract", contracts)

	chains := GroupChains(contracts, now)
	for _, chain := range chains {
		if err := p.chains.SaveChain(ctx, chain); err != nil {
			return fmt.Errorf("failed to store options chain %s: %w", chain.Key(), err)
		}
		run.Stored++
	}

	p.logger.Info().
		Int("contracts", len(contracts)).
		Int("chains", len(chains)).
		Msg("Options chains stored")

	return nil
}

// GroupChains groups contracts by underlying and expiration. Each side of a
// chain is sorted by strike ascending, ties broken by contract ticker.
// Chains are returned ordered by underlying then expiration.
func GroupChains(contracts []models.OptionsContract, generatedAt time.Time) []*models.OptionsChain {
	byKey := make(map[string]*models.OptionsChain)
	for _, contract := range contracts {
		key := contract.ChainKey()
		chain, ok := byKey[key]
		if !ok {
			chain = &models.OptionsChain{
				Underlying:  contract.Underlying,
				Expiration:  contract.Expiration.Format(models.DateLayout),
				GeneratedAt: generatedAt,
			}
			byKey[key] = chain
		}
		if contract.Type == models.ContractCall {
			chain.Calls = append(chain.Calls, contract)
		} else {
			chain.Puts = append(chain.Puts, contract)
		}
	}

	chains := make([]*models.OptionsChain, 0, len(byKey))
	for _, chain := range byKey {
		sortByStrike(chain.Calls)
		sortByStrike(chain.Puts)
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool {
		return chains[i].Key() < chains[j].Key()
	})
	return chains
}

func sortByStrike(contracts []models.OptionsContract) {
	sort.SliceStable(contracts, func(i, j int) bool {
		if contracts[i].Strike != contracts[j].Strike {
			return contracts[i].Strike < contracts[j].Strike
		}
		return contracts[i].Ticker < contracts[j].Ticker
	})
}
