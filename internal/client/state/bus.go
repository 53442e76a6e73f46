package state

import (
	"fmt"
	"sync/atomic"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Listener подписчик одного entity type
// items снапшот items типа на момент применения операции
type Listener func(op Operation, payload any, items []models.Entity)

// WildcardListener подписчик всех entity types
type WildcardListener func(entityType api.EntityType, op Operation, payload any)

type subscription struct {
	scoped     Listener
	wildcard   WildcardListener
	entityType api.EntityType
	id         uint64
	removed    atomic.Bool
}

type notification struct {
	payload    any
	entityType api.EntityType
	op         Operation
	items      []models.Entity
}

// Subscribe регистрирует подписчика entity type
// Возвращает функцию отписки; повторный вызов безопасен
//
// Уведомления доставляет одна горутина за раз. Если во время операции
// другая горутина уже раздает уведомления, операция возвращается сразу,
// а ее уведомления придут позже из той горутины, в порядке применения.
// Синхронность относительно вызывающего гарантирована только без
// конкурентных изменений и вне callback подписчика.
func (s *Store) Subscribe(entityType api.EntityType, fn Listener) func() {
	return s.addSubscription(&subscription{entityType: entityType, scoped: fn})
}

// SubscribeAll регистрирует подписчика на все entity types
// Порядок и момент доставки такие же, как у Subscribe
func (s *Store) SubscribeAll(fn WildcardListener) func() {
	return s.addSubscription(&subscription{wildcard: fn})
}

func (s *Store) addSubscription(sub *subscription) func() {
	s.mu.Lock()
	s.nextSubID++
	sub.id = s.nextSubID
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		if sub.removed.Swap(true) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.subs {
			if existing.id == sub.id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// hasScopedLocked есть ли подписчики конкретного типа; вызывается под s.mu
func (s *Store) hasScopedLocked(entityType api.EntityType) bool {
	for _, sub := range s.subs {
		if sub.scoped != nil && sub.entityType == entityType {
			return true
		}
	}
	return false
}

// enqueueLocked ставит уведомление в очередь; вызывается под s.mu
// в той же критической секции, что и изменение items
func (s *Store) enqueueLocked(entityType api.EntityType, op Operation, payload any) {
	n := notification{entityType: entityType, op: op, payload: payload}
	if s.hasScopedLocked(entityType) {
		n.items = models.CloneAll(s.stateLocked(entityType).items)
	}
	s.queue = append(s.queue, n)
}

// drain доставляет накопленные уведомления в порядке применения
// Доставляет только одна горутина; остальные выходят сразу, их
// уведомления доставит текущая. Поэтому мутация из callback подписчика
// не блокируется, а ее уведомление придет после текущего.
func (s *Store) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.queue) > 0 {
		n := s.queue[0]
		s.queue[0] = notification{}
		s.queue = s.queue[1:]

		subs := make([]*subscription, len(s.subs))
		copy(subs, s.subs)

		s.mu.Unlock()
		s.deliver(n, subs)
		s.mu.Lock()
	}

	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) deliver(n notification, subs []*subscription) {
	for _, sub := range subs {
		if sub.removed.Load() {
			continue
		}
		switch {
		case sub.wildcard != nil:
			s.invoke(sub, n, func() { sub.wildcard(n.entityType, n.op, n.payload) })
		case sub.scoped != nil && sub.entityType == n.entityType:
			items := n.items
			if items == nil {
				items = []models.Entity{}
			}
			s.invoke(sub, n, func() { sub.scoped(n.op, n.payload, items) })
		}
	}
}

// invoke вызывает подписчика; паника логируется и не мешает остальным
func (s *Store) invoke(sub *subscription, n notification, call func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Subscriber panicked",
				"entity_type", n.entityType,
				"operation", n.op,
				"subscriber", sub.id,
				"error", fmt.Sprint(r))
		}
	}()
	call()
}
