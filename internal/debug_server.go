package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type InspectRow struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Detail any    `json:"detail"`
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string         `json:"prefix"`
	Items  []InspectRow   `json:"items"`
	Stats  map[string]any `json:"stats"`
}

// NewDebugHandler lists the badger keys under ?prefix= (default "pairing:")
// next to live statistics. Mount it on a debug-only listener.
func NewDebugHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.Handler {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "pairing:"
		}
		data := PageData{Prefix: prefix, Items: []InspectRow{}, Stats: map[string]any{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(data)
	})
}

func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:    key,
		Type:   "raw",
		Entity: "-",
		Detail: "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if namespace, entity, ok := strings.Cut(key, ":"); ok {
		row.Type = namespace
		row.Entity = entity
	}
	return row
}
