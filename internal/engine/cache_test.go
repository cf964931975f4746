package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCacheSingleLoad(t *testing.T) {
	var loads int64
	cache := NewModelCache(func(lang string) (any, error) {
		atomic.AddInt64(&loads, 1)
		time.Sleep(10 * time.Millisecond) // имитация тяжёлой загрузки
		return "model-" + lang, nil
	})

	const workers = 16
	results := make([]any, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get("en-us")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&loads), "exactly one load per language")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "model-en-us", results[i], "all callers share the cached handle")
	}
}

func TestModelCachePerKey(t *testing.T) {
	var loads int64
	cache := NewModelCache(func(lang string) (any, error) {
		atomic.AddInt64(&loads, 1)
		return lang, nil
	})

	_, err := cache.Get("en-us")
	require.NoError(t, err)
	_, err = cache.Get("fr-fr")
	require.NoError(t, err)
	_, err = cache.Get("en-us")
	require.NoError(t, err)

	assert.Equal(t, int64(2), loads)
}

func TestModelCacheErrorIsSticky(t *testing.T) {
	var loads int64
	loadErr := errors.New("model dir corrupt")
	cache := NewModelCache(func(lang string) (any, error) {
		atomic.AddInt64(&loads, 1)
		return nil, loadErr
	})

	_, err := cache.Get("en-us")
	assert.ErrorIs(t, err, loadErr)

	// перезагрузки нет — результат первой попытки живёт весь процесс
	_, err = cache.Get("en-us")
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, int64(1), loads)
}
