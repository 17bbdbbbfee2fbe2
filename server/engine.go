package server

import (
	"context"
	"sort"
	"sync"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/settlement"
	"github.com/zsmartex/tradecore/store"
)

// EngineServer keeps one matching engine per configured symbol. Engines are
// only created by InitializeEngine, so every symbol gets exactly one
// MatchingMutex and unknown symbols never allocate one.
type EngineServer struct {
	mu      sync.Mutex
	Engines map[string]*matching.Engine

	store    store.Store
	executor *settlement.Executor
	sink     matching.Sink
}

func NewEngineServer(db store.Store, executor *settlement.Executor, sink matching.Sink) *EngineServer {
	return &EngineServer{
		Engines:  make(map[string]*matching.Engine),
		store:    db,
		executor: executor,
		sink:     sink,
	}
}

func (s *EngineServer) engine(symbol string) (*matching.Engine, error) {
	if _, _, err := models.ParseSymbol(symbol); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	engine, found := s.Engines[symbol]
	if !found {
		engine = matching.NewEngine(symbol, s.store, s.executor, s.sink)
		s.Engines[symbol] = engine
	}

	return engine, nil
}

// GetEngine returns the engine of a configured symbol, loading its depth if
// it was never loaded. Any other symbol is rejected as invalid.
func (s *EngineServer) GetEngine(ctx context.Context, symbol string) (*matching.Engine, error) {
	engine := s.GetEngineByMarket(symbol)
	if engine == nil {
		return nil, models.ErrInvalidSymbol
	}

	if !engine.Initialized() {
		if err := engine.Reload(ctx); err != nil {
			return nil, err
		}

		config.Logger.Infof("%v engine initialized.", symbol)
	}

	return engine, nil
}

func (s *EngineServer) GetEngineByMarket(symbol string) *matching.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Engines[symbol]
}

func (s *EngineServer) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols := make([]string, 0, len(s.Engines))
	for symbol := range s.Engines {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols
}

// InitializeEngine creates the engine of the symbol and loads its depth from
// the persisted resting orders.
func (s *EngineServer) InitializeEngine(ctx context.Context, symbol string) error {
	engine, err := s.engine(symbol)
	if err != nil {
		return err
	}

	if err := engine.Reload(ctx); err != nil {
		return err
	}

	config.Logger.Infof("%v engine reloaded.", symbol)

	return nil
}

// Reload reloads every known engine, or a single one.
func (s *EngineServer) Reload(ctx context.Context, symbol string) error {
	if symbol != "all" {
		engine := s.GetEngineByMarket(symbol)
		if engine == nil {
			return models.ErrInvalidSymbol
		}

		return engine.Reload(ctx)
	}

	for _, symbol := range s.Symbols() {
		if err := s.GetEngineByMarket(symbol).Reload(ctx); err != nil {
			return err
		}
	}

	config.Logger.Info("All engines reloaded.")

	return nil
}

func (s *EngineServer) FetchOrderBook(ctx context.Context, symbol string, limit int) (*matching.OrderBook, error) {
	engine, err := s.GetEngine(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return engine.FetchOrderBook(limit), nil
}

// Close stops the engines and waits until their queued notifications are
// delivered.
func (s *EngineServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, engine := range s.Engines {
		engine.Close()
	}
}
