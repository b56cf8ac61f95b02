package localstore

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItemMissingKey(t *testing.T) {
	s := NewInMemory()

	data, err := s.GetItem("favorites_abc")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := NewInMemory()

	require.NoError(t, s.SetItem("@user", []byte(`{"id":1}`)))
	data, err := s.GetItem("@user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(data))
}

func TestGetJSONCorruptValueIsEmpty(t *testing.T) {
	s := NewInMemory()
	require.NoError(t, s.SetItem("favorites_p1", []byte("{not json")))

	var out []map[string]interface{}
	ok := s.GetJSON("favorites_p1", &out)
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRemoveItemAbsentKeyIsNoop(t *testing.T) {
	s := NewInMemory()
	assert.NoError(t, s.RemoveItem("@pendingChange"))
}

func TestUpdateSerializesConcurrentWriters(t *testing.T) {
	s := NewInMemory()
	require.NoError(t, s.SetJSON("counter", 0))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update("counter", func(current []byte) ([]byte, error) {
				var n int
				if len(current) > 0 {
					if err := json.Unmarshal(current, &n); err != nil {
						return nil, err
					}
				}
				return json.Marshal(n + 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int
	require.True(t, s.GetJSON("counter", &n))
	assert.Equal(t, writers, n)
}
