package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("store: not found")

// BotStore is the C7 registry: CRUD over BotConfig plus the runtime flags
// (has_traded, cooldown, halted) that outlive any single position.
type BotStore struct {
	db *gorm.DB
}

func (s *BotStore) Create(cfg *BotConfig) error {
	if err := s.db.Create(cfg).Error; err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	return s.db.Create(&BotRuntimeFlags{BotID: cfg.ID}).Error
}

func (s *BotStore) Get(id int64) (*BotConfig, error) {
	var cfg BotConfig
	if err := s.db.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *BotStore) List() ([]BotConfig, error) {
	var cfgs []BotConfig
	if err := s.db.Order("id ASC").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}

// Update persists changes to an existing bot config. The caller is
// responsible for only calling this when the bot is stopped (I2's
// surrounding invariant about editable state lives in the api package).
func (s *BotStore) Update(cfg *BotConfig) error {
	return s.db.Save(cfg).Error
}

func (s *BotStore) SetState(id int64, state BotState) error {
	return s.db.Model(&BotConfig{}).Where("id = ?", id).Update("state", state).Error
}

// Delete removes a bot config and its runtime flags. Per I3/I2, callers must
// verify the bot is stopped and flat before calling this — the store layer
// does not re-check business invariants.
func (s *BotStore) Delete(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&BotConfig{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&BotRuntimeFlags{}, "bot_id = ?", id).Error
	})
}

func (s *BotStore) RuntimeFlags(botID int64) (*BotRuntimeFlags, error) {
	var flags BotRuntimeFlags
	if err := s.db.First(&flags, "bot_id = ?", botID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &BotRuntimeFlags{BotID: botID}, nil
		}
		return nil, err
	}
	return &flags, nil
}

// MarkTraded sets has_traded=true. Per I3 this is monotonic: nothing in
// this store ever clears it except Delete (a fresh bot id starts false
// again) or ResetTraded, an explicit reset that neither the trading loop
// nor the supervisor calls.
func (s *BotStore) MarkTraded(botID int64) error {
	return s.db.Model(&BotRuntimeFlags{}).Where("bot_id = ?", botID).Update("has_traded", true).Error
}

func (s *BotStore) ResetTraded(botID int64) error {
	return s.db.Model(&BotRuntimeFlags{}).Where("bot_id = ?", botID).Update("has_traded", false).Error
}

func (s *BotStore) SetCooldown(botID int64, until time.Time) error {
	return s.db.Model(&BotRuntimeFlags{}).Where("bot_id = ?", botID).Update("cooldown_until", until).Error
}

func (s *BotStore) SetHalted(botID int64, halted bool) error {
	return s.db.Model(&BotRuntimeFlags{}).Where("bot_id = ?", botID).Update("halted", halted).Error
}

// TotalAllocated sums Allocated across every registered bot, the left-hand
// side of invariant I1/P5.
func (s *BotStore) TotalAllocated() (float64, error) {
	var total float64
	err := s.db.Model(&BotConfig{}).Select("COALESCE(SUM(allocated), 0)").Row().Scan(&total)
	return total, err
}
