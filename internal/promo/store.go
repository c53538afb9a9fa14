package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/obs"
)

const snapshotCacheKey = "promo:snapshot:v1"

// Source captures the database methods the snapshot store needs.
type Source interface {
	ListCampaigns(ctx context.Context) ([]db.Campaign, error)
	GetWeeklyDeal(ctx context.Context) (db.WeeklyDealRow, error)
}

// Snapshot is a consistent, immutable view of every promotion at one instant.
// A single evaluation always works from one snapshot, so a cart is never
// priced against a half-updated rule set.
type Snapshot struct {
	Rules []Rule      `json:"rules"`
	Deal  *WeeklyDeal `json:"deal,omitempty"`
}

// Store loads promotion snapshots from Postgres with a short-TTL Redis cache
// in front. Admin writes invalidate the cached snapshot.
type Store struct {
	Source Source
	Cache  *redis.Client
	TTL    time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 30 * time.Second
	}
	return s.TTL
}

// Snapshot returns the current promotion snapshot, from cache when fresh.
// Cache failures fall through to the database; callers on the pricing path
// must always get a snapshot if the database is reachable.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	if s == nil || s.Source == nil {
		return Snapshot{}, errors.New("promo: snapshot source not configured")
	}
	if s.Cache != nil {
		data, err := s.Cache.Get(ctx, snapshotCacheKey).Bytes()
		if err == nil {
			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				countSnapshot("hit")
				return snap, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			countSnapshot("error")
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	countSnapshot("miss")
	if s.Cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.Cache.Set(ctx, snapshotCacheKey, data, s.ttl()).Err()
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot. Called from the admin write path.
func (s *Store) Invalidate(ctx context.Context) error {
	if s == nil || s.Cache == nil {
		return nil
	}
	return s.Cache.Del(ctx, snapshotCacheKey).Err()
}

// Warm re-primes the snapshot cache; used by the background worker.
func (s *Store) Warm(ctx context.Context) error {
	if s == nil || s.Source == nil {
		return errors.New("promo: snapshot source not configured")
	}
	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	if s.Cache == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, snapshotCacheKey, data, s.ttl()).Err()
}

func (s *Store) load(ctx context.Context) (Snapshot, error) {
	campaigns, err := s.Source.ListCampaigns(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list campaigns: %w", err)
	}
	snap := Snapshot{Rules: make([]Rule, 0, len(campaigns))}
	for i, c := range campaigns {
		snap.Rules = append(snap.Rules, RuleFromModel(c, i))
	}

	dealRow, err := s.Source.GetWeeklyDeal(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return snap, nil
		}
		return Snapshot{}, fmt.Errorf("get weekly deal: %w", err)
	}
	snap.Deal = DealFromModel(dealRow)
	return snap, nil
}

func countSnapshot(result string) {
	if obs.PromoSnapshotTotal != nil {
		obs.PromoSnapshotTotal.WithLabelValues(result).Inc()
	}
}

// RuleFromModel converts a stored campaign into an engine rule. The position
// reflects the campaign's rank in definition order.
func RuleFromModel(c db.Campaign, position int) Rule {
	rule := Rule{
		ID:                c.ID,
		Name:              c.Name,
		Kind:              Kind(c.Kind),
		Enabled:           c.Enabled,
		DiscountType:      DiscountType(c.DiscountType),
		DiscountValue:     c.DiscountValue,
		Priority:          int(c.Priority),
		ProductIDs:        c.ProductIDs,
		MinQuantity:       int(c.MinQuantity),
		MinPurchaseAmount: c.MinPurchaseAmount,
		BundleProductIDs:  c.BundleProductIDs,
		Position:          position,
	}
	if c.StartDate != nil {
		rule.StartDate = *c.StartDate
	}
	if c.EndDate != nil {
		rule.EndDate = *c.EndDate
	}
	return rule
}

// DealFromModel converts the stored weekly deal row into its engine form.
func DealFromModel(row db.WeeklyDealRow) *WeeklyDeal {
	deal := &WeeklyDeal{
		Enabled:       row.Enabled,
		DiscountType:  DiscountType(row.DiscountType),
		DiscountValue: row.DiscountValue,
		ProductIDs:    row.ProductIDs,
	}
	if row.StartDate != nil {
		deal.StartDate = *row.StartDate
	}
	if row.EndDate != nil {
		deal.EndDate = *row.EndDate
	}
	if len(row.ItemDiscounts) > 0 {
		var overrides map[string]struct {
			DiscountType  string `json:"discountType"`
			DiscountValue int64  `json:"discountValue"`
		}
		if err := json.Unmarshal(row.ItemDiscounts, &overrides); err == nil && len(overrides) > 0 {
			deal.ItemDiscounts = make(map[string]Override, len(overrides))
			for id, o := range overrides {
				deal.ItemDiscounts[id] = Override{
					DiscountType:  DiscountType(o.DiscountType),
					DiscountValue: o.DiscountValue,
				}
			}
		}
	}
	return deal
}
