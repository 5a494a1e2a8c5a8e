package store

import "gorm.io/gorm"

// TradeLogStore is the append-only trade log: entries are created, never
// updated or deleted, matching the spec's "Trade log: immutable;
// append-only" lifecycle note.
type TradeLogStore struct {
	db *gorm.DB
}

func (s *TradeLogStore) Append(entry *TradeLogEntry) error {
	return s.db.Create(entry).Error
}

func (s *TradeLogStore) ForBot(botID int64, limit int) ([]TradeLogEntry, error) {
	var entries []TradeLogEntry
	q := s.db.Scopes(ForBot(botID), OrderByTimestampDesc())
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
