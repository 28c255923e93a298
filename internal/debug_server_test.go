package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestDebugHandler_Lists_Prefix(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("pairing:41"), []byte{0x01, 0x02}); err != nil {
			return err
		}
		return txn.Set([]byte("other:1"), []byte{0x01})
	}))

	handler := NewDebugHandler(db, nil, func() map[string]any { return map[string]any{"rooms": 3} })
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	req.Equal(http.StatusOK, w.Code)
	var page PageData
	req.NoError(json.Unmarshal(w.Body.Bytes(), &page))
	req.Equal("pairing:", page.Prefix)
	req.Len(page.Items, 1)
	req.Equal(InspectRow{Key: "pairing:41", Type: "pairing", Entity: "41", Detail: "Size: 2 bytes"}, page.Items[0])
	req.EqualValues(3, page.Stats["rooms"])
}
