// Package roster resolves the local player's fireteam into rank-ordered members.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fireteam/roster/internal/api"
	"github.com/fireteam/roster/pkg/core"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

var (
	// ErrIdentityNotFound is returned when player search yields no membership.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrProfileUnavailable is returned when the local player's profile is absent.
	ErrProfileUnavailable = errors.New("profile unavailable")
	// ErrNoFireteam is returned when the local player is not in a party.
	ErrNoFireteam = errors.New("no fireteam")
	// ErrSelfNotInRoster is returned when the local player is missing from the resolved members.
	ErrSelfNotInRoster = errors.New("local player not in roster")
)

var (
	selfComponents   = []int{api.ComponentCharacters, api.ComponentCharacterInventories, api.ComponentCharacterEquipment, api.ComponentTransitory}
	memberComponents = []int{api.ComponentCharacters, api.ComponentCharacterInventories, api.ComponentCharacterEquipment}
)

// Platform is the subset of the Bungie.net client the resolver needs.
type Platform interface {
	SearchPlayer(ctx context.Context, name string, code int) ([]api.UserInfoCard, error)
	GetProfile(ctx context.Context, membershipType int, membershipID string, components ...int) (*api.ProfileResponse, error)
	GetMembershipsByID(ctx context.Context, membershipID string) (*api.UserMemberships, error)
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Skipped records a party member that could not be resolved.
type Skipped struct {
	MembershipID string
	Reason       error
}

// Roster is the resolved fireteam. Members are ordered by rank, starting at 1.
type Roster struct {
	Members  []core.MemberRecord
	SelfRank int
	Skipped  []Skipped
}

// Self returns the local player's record.
func (r *Roster) Self() core.MemberRecord {
	return r.Members[r.SelfRank-1]
}

// Resolver turns a local identity into a fireteam roster.
type Resolver struct {
	platform    Platform
	logger      Logger
	concurrency int
}

// NewResolver creates a resolver. concurrency bounds the parallel member lookups;
// zero or less means unbounded.
func NewResolver(platform Platform, logger Logger, concurrency int) *Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Resolver{platform: platform, logger: logger, concurrency: concurrency}
}

// Resolve looks up the identity, reads its party and resolves every member.
// Members whose lookups fail are reported in Skipped and left out.
func (r *Resolver) Resolve(ctx context.Context, id core.Identity) (*Roster, error) {
	cards, err := r.platform.SearchPlayer(ctx, id.Name, id.Code)
	if err != nil && !errors.Is(err, api.ErrNoData) {
		return nil, fmt.Errorf("searching %s: %w", id, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	self := cards[0]

	profile, err := r.platform.GetProfile(ctx, self.MembershipType, self.MembershipID, selfComponents...)
	if err != nil {
		if errors.Is(err, api.ErrNoData) {
			return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
		}
		return nil, fmt.Errorf("fetching profile of %s: %w", id, err)
	}

	party := profile.PartyMembers()
	if len(party) == 0 {
		return nil, ErrNoFireteam
	}
	r.logger.Info("Fireteam found", "size", len(party))

	roster := &Roster{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for _, pm := range party {
		pm := pm
		g.Go(func() error {
			member, err := r.resolveMember(gctx, pm.MembershipID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Error("Skipping fireteam member", "membershipId", pm.MembershipID, "error", err)
				roster.Skipped = append(roster.Skipped, Skipped{MembershipID: pm.MembershipID, Reason: err})
				return nil
			}
			roster.Members = append(roster.Members, member)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	AssignRanks(roster.Members)
	sort.Slice(roster.Skipped, func(i, j int) bool {
		return roster.Skipped[i].MembershipID < roster.Skipped[j].MembershipID
	})

	roster.SelfRank = FindRank(roster.Members, id)
	if roster.SelfRank == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSelfNotInRoster, id)
	}
	return roster, nil
}

func (r *Resolver) resolveMember(ctx context.Context, membershipID string) (core.MemberRecord, error) {
	memberships, err := r.platform.GetMembershipsByID(ctx, membershipID)
	if err != nil {
		return core.MemberRecord{}, fmt.Errorf("membership lookup: %w", err)
	}
	card, ok := memberships.Find(membershipID)
	if !ok || card.BungieGlobalDisplayName == "" || card.MembershipType == 0 {
		return core.MemberRecord{}, fmt.Errorf("membership lookup: %w: no matching destiny membership", api.ErrNoData)
	}

	profile, err := r.platform.GetProfile(ctx, card.MembershipType, membershipID, memberComponents...)
	if err != nil {
		return core.MemberRecord{}, fmt.Errorf("profile: %w", err)
	}

	character, ok := MostRecentCharacter(profile.CharacterMap())
	if !ok {
		return core.MemberRecord{}, fmt.Errorf("profile: %w: no characters", api.ErrNoData)
	}

	member := core.MemberRecord{
		DisplayName:     card.BungieGlobalDisplayName,
		DisplayNameCode: card.BungieGlobalDisplayNameCode,
		MembershipID:    membershipID,
		MembershipType:  card.MembershipType,
		Character: core.CharacterSnapshot{
			CharacterID:          character.CharacterID,
			EmblemBackgroundPath: character.EmblemBackgroundPath,
			EmblemPath:           character.EmblemPath,
			LastPlayed:           character.DateLastPlayed,
		},
		Ghost: FindGhost(profile.EquipmentOf(character.CharacterID)),
	}
	r.logger.Debug("Resolved fireteam member", "name", member.DisplayName, "character", character.CharacterID)
	return member, nil
}

// MostRecentCharacter picks the character with the latest dateLastPlayed.
// Equal timestamps are broken by the lowest character id.
func MostRecentCharacter(chars map[string]api.Character) (api.Character, bool) {
	var best api.Character
	found := false
	for id, c := range chars {
		if c.CharacterID == "" {
			c.CharacterID = id
		}
		switch {
		case !found:
		case c.DateLastPlayed.After(best.DateLastPlayed):
		case c.DateLastPlayed.Equal(best.DateLastPlayed) && c.CharacterID < best.CharacterID:
		default:
			continue
		}
		best, found = c, true
	}
	return best, found
}

// FindGhost returns the item equipped in the ghost bucket, if any.
func FindGhost(items []api.Item) *core.GhostItemRef {
	for _, item := range items {
		if item.BucketHash == core.GhostBucketHash {
			return &core.GhostItemRef{ItemHash: item.ItemHash, ItemInstanceID: item.ItemInstanceID}
		}
	}
	return nil
}

// fold builds a fresh Caser per call; Casers keep state and must not be shared.
func fold(s string) string {
	return cases.Fold().String(s)
}

// AssignRanks sorts members by case-insensitive display name and numbers them 1..N.
func AssignRanks(members []core.MemberRecord) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := fold(members[i].DisplayName), fold(members[j].DisplayName)
		if a != b {
			return a < b
		}
		if members[i].DisplayName != members[j].DisplayName {
			return members[i].DisplayName < members[j].DisplayName
		}
		return members[i].MembershipID < members[j].MembershipID
	})
	for i := range members {
		members[i].Rank = i + 1
	}
}

// FindRank returns the rank of the member matching id, or 0. Names compare
// case-insensitively; codes must agree when both sides know theirs.
func FindRank(members []core.MemberRecord, id core.Identity) int {
	want := fold(id.Name)
	for _, m := range members {
		if fold(m.DisplayName) != want {
			continue
		}
		if id.Code != 0 && m.DisplayNameCode != 0 && id.Code != m.DisplayNameCode {
			continue
		}
		return m.Rank
	}
	return 0
}
