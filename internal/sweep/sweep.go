// Package sweep сверяет просроченные вещи и предложения обмена со
// временем. Свип запускается по требованию перед отрисовкой списков,
// а не по расписанию; каждый из трех проходов идемпотентен.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
	"github.com/rajivgeraev/swapstyle-api/internal/timeslot"
)

// Service выполняет свип просроченных записей
type Service struct {
	store store.Store
	now   func() time.Time

	mu        sync.Mutex
	processed map[string]struct{} // зачтенные обмены в рамках сессии
}

// NewService создает новый экземпляр Service
func NewService(st store.Store) *Service {
	return &Service{
		store:     st,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}
}

// CheckAndUpdateExpiredItems выполняет три прохода свипа:
//  1. доступные вещи, у которых прошли все слоты времени, становятся UNAVAILABLE;
//  2. вещи в обмене, у которых прошло время встречи принятого предложения,
//     становятся SWAPPED, и обоим участникам засчитывается обмен;
//  3. ожидающие предложения с прошедшим временем встречи отклоняются.
//
// Проходы работают с непересекающимися статусами, поэтому их взаимный
// порядок не важен; ошибки по отдельным записям логируются, не прерывая свип.
func (s *Service) CheckAndUpdateExpiredItems(ctx context.Context) error {
	now := s.now()

	if err := s.demoteExpiredAvailableItems(ctx, now); err != nil {
		return err
	}
	if err := s.finalizeExpiredInProcessItems(ctx, now); err != nil {
		return err
	}
	if err := s.rejectExpiredPendingOffers(ctx, now); err != nil {
		return err
	}

	return nil
}

// ClearProcessedSwaps сбрасывает сессионный набор зачтенных обменов.
// Вызывается при выходе пользователя.
func (s *Service) ClearProcessedSwaps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = make(map[string]struct{})
}

// demoteExpiredAvailableItems снимает с обмена доступные вещи,
// у которых прошли все слоты времени
func (s *Service) demoteExpiredAvailableItems(ctx context.Context, now time.Time) error {
	docs, err := s.store.Query(ctx, store.CollectionItems, []store.Predicate{
		store.Eq("status", string(models.ItemStatusAvailable)),
	}, nil)
	if err != nil {
		return fmt.Errorf("ошибка запроса доступных вещей: %w", err)
	}

	for i := range docs {
		item := models.ItemFromDoc(&docs[i])

		if !timeslot.AllExpired(item.TimeSlots, now) {
			continue
		}

		err := s.store.Update(ctx, store.CollectionItems, item.ID, map[string]any{
			"status": string(models.ItemStatusUnavailable),
		})
		if err != nil {
			log.Printf("Ошибка снятия вещи %s с обмена: %v", item.ID, err)
		}
	}

	return nil
}

// finalizeExpiredInProcessItems завершает обмены, время встречи которых
// прошло. Зачет обмена защищен двумя уровнями: сессионным набором
// swapId и персистентным флагом finalized на принятом предложении,
// который проверяется и выставляется тем же батчем, что переводит вещи
// в SWAPPED и увеличивает счетчики обменов. Повторный свип из любого
// процесса не проходит условное обновление и ничего не меняет.
func (s *Service) finalizeExpiredInProcessItems(ctx context.Context, now time.Time) error {
	docs, err := s.store.Query(ctx, store.CollectionItems, []store.Predicate{
		store.Eq("status", string(models.ItemStatusInProcess)),
	}, nil)
	if err != nil {
		return fmt.Errorf("ошибка запроса вещей в обмене: %w", err)
	}

	for i := range docs {
		itemID := docs[i].ID

		accepted, err := s.store.QueryGroup(ctx, store.GroupUserOffers, []store.Predicate{
			store.Eq("itemId", itemID),
			store.Eq("status", string(models.SwapStatusAccepted)),
		})
		if err != nil {
			log.Printf("Ошибка поиска принятого предложения для вещи %s: %v", itemID, err)
			continue
		}
		if len(accepted) == 0 {
			continue
		}

		offer := models.SwapOfferFromDoc(&accepted[0])
		if offer.SwapID == "" {
			continue
		}

		if s.alreadyProcessed(offer.SwapID) || offer.Finalized {
			s.markProcessed(offer.SwapID)
			continue
		}

		slotTime, err := timeslot.Parse(offer.SelectedTimeSlot)
		if err != nil || !slotTime.Before(now) {
			continue
		}

		s.markProcessed(offer.SwapID)
		if err := s.finalizeSwap(ctx, itemID, offer); err != nil {
			if isConflict(err) {
				// Уже зачтено другим процессом
				continue
			}
			s.unmarkProcessed(offer.SwapID)
			log.Printf("Ошибка завершения обмена %s: %v", offer.SwapID, err)
		}
	}

	return nil
}

// finalizeSwap одним батчем выставляет флаг finalized на обеих копиях
// предложения, переводит обе вещи в SWAPPED и увеличивает счетчики
// обменов обоих участников
func (s *Service) finalizeSwap(ctx context.Context, itemID string, offer *models.SwapOffer) error {
	batch := s.store.Batch()

	batch.UpdateIf(store.UserOffersPath(offer.ItemOwnerID), offer.SwapID,
		store.Neq("finalized", true),
		map[string]any{"finalized": true})
	batch.Update(store.SentOffersPath(offer.InterestedUserID), offer.SwapID,
		map[string]any{"finalized": true})

	batch.Update(store.CollectionItems, itemID,
		map[string]any{"status": string(models.ItemStatusSwapped)})
	if offer.OfferedItemID != "" {
		batch.Update(store.CollectionItems, offer.OfferedItemID,
			map[string]any{"status": string(models.ItemStatusSwapped)})
	}

	batch.Increment(store.CollectionUsers, offer.ItemOwnerID, "swapCount", 1)
	batch.Increment(store.CollectionUsers, offer.InterestedUserID, "swapCount", 1)

	return batch.Commit(ctx)
}

// rejectExpiredPendingOffers отклоняет ожидающие предложения,
// время встречи которых прошло, в обеих копиях
func (s *Service) rejectExpiredPendingOffers(ctx context.Context, now time.Time) error {
	docs, err := s.store.QueryGroup(ctx, store.GroupSentOffers, []store.Predicate{
		store.Eq("status", string(models.SwapStatusPending)),
	})
	if err != nil {
		return fmt.Errorf("ошибка запроса ожидающих предложений: %w", err)
	}

	for i := range docs {
		offer := models.SwapOfferFromDoc(&docs[i])
		if offer.SwapID == "" || offer.ItemOwnerID == "" || offer.InterestedUserID == "" {
			continue
		}

		slotTime, err := timeslot.Parse(offer.SelectedTimeSlot)
		if err != nil || !slotTime.Before(now) {
			continue
		}

		batch := s.store.Batch()
		batch.Update(store.SentOffersPath(offer.InterestedUserID), offer.SwapID,
			map[string]any{"status": string(models.SwapStatusRejected)})
		batch.Update(store.UserOffersPath(offer.ItemOwnerID), offer.SwapID,
			map[string]any{"status": string(models.SwapStatusRejected)})

		if err := batch.Commit(ctx); err != nil {
			log.Printf("Ошибка отклонения просроченного предложения %s: %v", offer.SwapID, err)
		}
	}

	return nil
}

func (s *Service) alreadyProcessed(swapID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[swapID]
	return ok
}

func (s *Service) markProcessed(swapID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[swapID] = struct{}{}
}

func (s *Service) unmarkProcessed(swapID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processed, swapID)
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrConflict)
}
