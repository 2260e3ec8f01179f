package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Storage keeps one bucket per sheet. Rows are JSON arrays keyed by a
// big-endian sequence number, so cursor order is row order.
type Storage struct {
	db *bolt.DB
}

func NewBoltStorage(dbPath string) (*Storage, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Sheet(_ context.Context, name string, headers []string) (store.Sheet, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return fmt.Errorf("creating %s bucket: %w", name, err)
		}

		k, v := b.Cursor().First()
		if k == nil {
			return appendRow(b, headers)
		}

		var current []string
		if err := json.Unmarshal(v, &current); err != nil {
			return fmt.Errorf("decoding %s header: %w", name, err)
		}
		repairs := store.HeaderRepairs(current, headers)
		if len(repairs) == 0 {
			return nil
		}
		for col, h := range repairs {
			current = store.SetCell(current, col, h)
		}
		return putRow(b, k, current)
	})
	if err != nil {
		return nil, err
	}
	return &sheet{db: s.db, name: name}, nil
}

type sheet struct {
	db   *bolt.DB
	name string
}

func (sh *sheet) Name() string {
	return sh.name
}

func (sh *sheet) bucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(sh.name))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrSheetNotFound, sh.name)
	}
	return b, nil
}

func (sh *sheet) Rows(_ context.Context) ([][]string, error) {
	var rows [][]string

	err := sh.db.View(func(tx *bolt.Tx) error {
		b, err := sh.bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var row []string
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("decoding %s row: %w", sh.name, err)
			}
			rows = append(rows, row)
			return nil
		})
	})

	return rows, err
}

func (sh *sheet) Append(_ context.Context, row []string) error {
	return sh.db.Update(func(tx *bolt.Tx) error {
		b, err := sh.bucket(tx)
		if err != nil {
			return err
		}
		return appendRow(b, row)
	})
}

func (sh *sheet) UpdateCell(_ context.Context, row, col int, value string) error {
	return sh.db.Update(func(tx *bolt.Tx) error {
		b, err := sh.bucket(tx)
		if err != nil {
			return err
		}
		keys := rowKeys(b)
		if err := store.CheckRow(row, len(keys)); err != nil {
			return err
		}

		var cells []string
		if err := json.Unmarshal(b.Get(keys[row]), &cells); err != nil {
			return fmt.Errorf("decoding %s row: %w", sh.name, err)
		}
		return putRow(b, keys[row], store.SetCell(cells, col, value))
	})
}

func (sh *sheet) DeleteRow(_ context.Context, row int) error {
	return sh.db.Update(func(tx *bolt.Tx) error {
		b, err := sh.bucket(tx)
		if err != nil {
			return err
		}
		keys := rowKeys(b)
		if err := store.CheckDataRow(row, len(keys)); err != nil {
			return err
		}
		return b.Delete(keys[row])
	})
}

func (sh *sheet) Replace(_ context.Context, rows [][]string) error {
	return sh.db.Update(func(tx *bolt.Tx) error {
		b, err := sh.bucket(tx)
		if err != nil {
			return err
		}

		keys := rowKeys(b)
		for _, k := range keys[1:] {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		for _, row := range rows {
			if err := appendRow(b, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// rowKeys copies the keys because bolt only guarantees them for the life of
// the transaction and deleting while iterating a cursor skips entries.
func rowKeys(b *bolt.Bucket) [][]byte {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	return keys
}

func appendRow(b *bolt.Bucket, row []string) error {
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("allocating row key: %w", err)
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return putRow(b, key, row)
}

func putRow(b *bolt.Bucket, key []byte, row []string) error {
	if row == nil {
		row = []string{}
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshaling row: %w", err)
	}
	return b.Put(key, data)
}
