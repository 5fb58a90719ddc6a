package ml

import (
	"fmt"
	"time"

	"flight-delay/internal/common"

	"github.com/rs/zerolog/log"
)

// EngineConfig selects and configures a training engine.
type EngineConfig struct {
	Name       string
	Params     BoosterParams
	PythonPath string
	ScriptDir  string
	Timeout    time.Duration
}

// NewEngine builds the configured engine, xgboost when no name is given. When
// the xgboost engine cannot start (no interpreter, package missing) training
// falls back to the native booster.
func NewEngine(cfg EngineConfig) (Engine, error) {
	switch cfg.Name {
	case common.EngineNative:
		return NewNativeEngine(cfg.Params), nil
	case "", common.EngineXGBoost:
		e, err := NewXGBoostEngine(cfg.Params, cfg.PythonPath, cfg.ScriptDir, cfg.Timeout)
		if err != nil {
			log.Warn().Err(err).Msg("xgboost engine unavailable, using native booster")
			return NewNativeEngine(cfg.Params), nil
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown booster engine %q", cfg.Name)
	}
}
