package state

import "sync"

// keyedMutex очередь мутаций по ключу (тип + id)
// Ожидающие получают ключ строго в порядке вызова Lock
type keyedMutex struct {
	entries map[string]*keyEntry
	mu      sync.Mutex
}

type keyEntry struct {
	waiters []chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*keyEntry)}
}

// Lock захватывает ключ и возвращает функцию освобождения
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, held := k.entries[key]
	if !held {
		k.entries[key] = &keyEntry{}
		k.mu.Unlock()
		return k.releaser(key)
	}

	ready := make(chan struct{})
	entry.waiters = append(entry.waiters, ready)
	k.mu.Unlock()

	<-ready
	return k.releaser(key)
}

func (k *keyedMutex) releaser(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()

			entry := k.entries[key]
			if len(entry.waiters) == 0 {
				delete(k.entries, key)
				return
			}
			// ключ передается следующему без освобождения
			next := entry.waiters[0]
			entry.waiters = entry.waiters[1:]
			close(next)
		})
	}
}

// Len количество захваченных ключей
func (k *keyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func mutationKey(entityType string, id string) string {
	return entityType + "\x00" + id
}
