// Пакет locks выдает мьютексы по ключу пользователя. Все изменения поездок
// одного пользователя должны идти под его мьютексом: решение о склейке цепочки
// читает предыдущую поездку перед записью новой, и два параллельных вебхука
// без блокировки могли бы принять противоречивые решения.
package locks

import "sync"

// Table представляет таблицу мьютексов по идентификатору пользователя.
type Table struct {
	mu    sync.Mutex
	users map[int64]*sync.Mutex
}

// NewTable создает пустую таблицу блокировок.
func NewTable() *Table {
	return &Table{users: make(map[int64]*sync.Mutex)}
}

// Get возвращает мьютекс пользователя, создавая его при первом обращении.
// Для одного и того же id всегда возвращается один и тот же мьютекс.
func (t *Table) Get(userID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mu, ok := t.users[userID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	t.users[userID] = mu
	return mu
}
