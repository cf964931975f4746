package engine

import "sync"

// ModelCache — процессный кэш тяжёлых моделей по коду языка.
// Ровно одна загрузка на ключ: конкурирующие первые обращения ждут одну
// загрузку и разделяют её результат. Инвалидции/перезагрузки нет — модель
// неизменна на всё время жизни процесса.
type ModelCache struct {
	mu      sync.Mutex
	load    func(lang string) (any, error)
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	model any
	err   error
}

func NewModelCache(load func(lang string) (any, error)) *ModelCache {
	return &ModelCache{
		load:    load,
		entries: make(map[string]*cacheEntry),
	}
}

// Get — лок только вокруг check-and-populate записи, сама загрузка идёт
// под once конкретного ключа и не держит общий мьютекс.
func (c *ModelCache) Get(lang string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[lang]
	if !ok {
		e = &cacheEntry{}
		c.entries[lang] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.model, e.err = c.load(lang)
	})
	return e.model, e.err
}
