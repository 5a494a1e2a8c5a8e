package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// PositionStore persists the C5 per-bot position snapshot. Every mutation
// commits inside a transaction so the in-memory and on-disk snapshot are
// never observably out of sync (I5): a crash mid-write leaves the previous
// committed row intact rather than a half-updated one.
type PositionStore struct {
	db *gorm.DB
}

// Get returns the open position for botID, or ErrNotFound if the bot is flat.
func (s *PositionStore) Get(botID int64) (*PositionSnapshot, error) {
	var pos PositionSnapshot
	err := s.db.Preload("CapitalAdditions").First(&pos, "bot_id = ?", botID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pos, nil
}

// Open creates a new position snapshot for a bot that was previously flat,
// the BUY-fill-creates-position step of the position lifecycle.
func (s *PositionStore) Open(pos *PositionSnapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(pos).Error
	})
}

// UpdateAfterAddBuy commits the recomputed entry/quantity/stop/target for an
// add-to-position fill, appending the funding amount to capital_additions
// when the add-buy was operator-funded rather than self-funded from the
// position (the caller decides which applies and only passes a non-nil
// addition when it should be recorded).
func (s *PositionStore) UpdateAfterAddBuy(pos *PositionSnapshot, addition *CapitalAddition) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(pos).Error; err != nil {
			return fmt.Errorf("save position: %w", err)
		}
		if addition != nil {
			addition.PositionID = pos.ID
			if err := tx.Create(addition).Error; err != nil {
				return fmt.Errorf("record capital addition: %w", err)
			}
		}
		return nil
	})
}

// Close removes the position snapshot, the full-close step of the
// lifecycle (position destroyed on complete SELL).
func (s *PositionStore) Close(botID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pos PositionSnapshot
		if err := tx.First(&pos, "bot_id = ?", botID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&CapitalAddition{}, "position_id = ?", pos.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&pos).Error
	})
}

// AllOpen returns every open position across all bots.
func (s *PositionStore) AllOpen() ([]PositionSnapshot, error) {
	var positions []PositionSnapshot
	if err := s.db.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
