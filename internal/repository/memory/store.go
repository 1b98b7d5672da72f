package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-market-auth/internal/model"
)

// Store keeps identities, role profiles and the approval audit trail in
// process memory. Every write happens under one lock, so CreateWithProfile is
// all-or-nothing just like the Postgres transaction.
type Store struct {
	mu sync.RWMutex

	identities map[string]model.Identity
	usernames  map[string]string
	profiles   map[string]model.RoleProfile
	profileIDs map[string]string
	markets    map[string]model.Market
	audit      []model.AuditEntry
}

func NewStore(markets ...model.Market) *Store {
	s := &Store{
		identities: make(map[string]model.Identity),
		usernames:  make(map[string]string),
		profiles:   make(map[string]model.RoleProfile),
		profileIDs: make(map[string]string),
		markets:    make(map[string]model.Market),
	}
	for _, market := range markets {
		s.markets[market.Code] = market
	}
	return s
}

func (s *Store) AddMarket(_ context.Context, market model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.markets[market.Code]; !exists {
		s.markets[market.Code] = market
	}
	return nil
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Store) CreateWithProfile(_ context.Context, identity model.Identity, profile model.RoleProfile) error {
	if !profile.Matches(identity.Role) {
		return model.ErrProfileMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.identities[identity.ID]; exists {
		return model.ErrIDCollision
	}
	if _, exists := s.profileIDs[profile.ID()]; exists {
		return model.ErrIDCollision
	}
	key := usernameKey(identity.Username)
	if _, exists := s.usernames[key]; exists {
		return model.ErrUsernameTaken
	}

	if sf := profile.Storefront; sf != nil {
		if _, exists := s.markets[sf.MarketCode]; !exists {
			return model.ErrMarketNotFound
		}
		if sf.ManagerCode != nil && !s.isManagerProfileLocked(*sf.ManagerCode) {
			return model.ErrManagerNotFound
		}
	}
	if mp := profile.Manager; mp != nil && mp.MarketCode != nil {
		if _, exists := s.markets[*mp.MarketCode]; !exists {
			return model.ErrMarketNotFound
		}
	}

	s.identities[identity.ID] = identity
	s.usernames[key] = identity.ID
	s.profiles[identity.ID] = cloneProfile(profile)
	s.profileIDs[profile.ID()] = identity.ID
	return nil
}

func (s *Store) isManagerProfileLocked(profileID string) bool {
	identityID, exists := s.profileIDs[profileID]
	if !exists {
		return false
	}
	return s.profiles[identityID].Manager != nil
}

func (s *Store) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.usernames[usernameKey(username)]
	return exists, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.usernames[usernameKey(username)]
	if !exists {
		return model.Identity{}, model.ErrIdentityNotFound
	}
	return s.identities[id], nil
}

func (s *Store) FindByID(_ context.Context, id string) (model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, exists := s.identities[id]
	if !exists {
		return model.Identity{}, model.ErrIdentityNotFound
	}
	return identity, nil
}

func (s *Store) FindProfile(_ context.Context, identityID string, role model.Role) (model.RoleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, exists := s.profiles[identityID]
	if !exists || profile.Role != role {
		return model.RoleProfile{}, model.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

func (s *Store) ListIdentities(_ context.Context, query model.IdentityQuery) ([]model.Identity, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit)

	s.mu.RLock()
	matched := make([]model.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		if query.Role != "" && identity.Role != query.Role {
			continue
		}
		if query.Status != "" && identity.ApprovalStatus != query.Status {
			continue
		}
		matched = append(matched, identity)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i int, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return matched[start:end], model.NewMeta(page, limit, total), nil
}

func (s *Store) UpdateApprovalStatus(_ context.Context, id string, from model.ApprovalStatus, to model.ApprovalStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, exists := s.identities[id]
	if !exists || identity.ApprovalStatus != from {
		return false, nil
	}

	identity.ApprovalStatus = to
	identity.UpdatedAt = time.Now().UTC()
	s.identities[id] = identity
	return true, nil
}

func (s *Store) DeleteIfStatus(_ context.Context, id string, status model.ApprovalStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, exists := s.identities[id]
	if !exists || identity.ApprovalStatus != status {
		return false, nil
	}

	if profile, ok := s.profiles[id]; ok {
		delete(s.profileIDs, profile.ID())
	}
	delete(s.profiles, id)
	delete(s.usernames, usernameKey(identity.Username))
	delete(s.identities, id)
	return true, nil
}

func (s *Store) CountStats(_ context.Context) (model.IdentityStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.IdentityStats{
		Total: len(s.identities),
		ByRole: map[model.Role]int{
			model.RoleBuyer:      0,
			model.RoleShipper:    0,
			model.RoleStorefront: 0,
			model.RoleManager:    0,
		},
	}
	for _, identity := range s.identities {
		stats.ByRole[identity.Role]++
		if identity.ApprovalStatus == model.StatusPending {
			stats.PendingApprovals++
		}
	}
	return stats, nil
}

func (s *Store) Log(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit)

	s.mu.RLock()
	matched := make([]model.AuditEntry, 0, len(s.audit))
	for _, entry := range s.audit {
		if query.Action != "" && entry.Action != query.Action {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i int, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return matched[start:end], model.NewMeta(page, limit, total), nil
}

func cloneProfile(profile model.RoleProfile) model.RoleProfile {
	out := model.RoleProfile{Role: profile.Role}
	if profile.Buyer != nil {
		v := *profile.Buyer
		out.Buyer = &v
	}
	if profile.Shipper != nil {
		v := *profile.Shipper
		out.Shipper = &v
	}
	if profile.Storefront != nil {
		v := *profile.Storefront
		out.Storefront = &v
	}
	if profile.Manager != nil {
		v := *profile.Manager
		out.Manager = &v
	}
	return out
}
