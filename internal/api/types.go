package api

import "time"

// UserInfoCard is a Destiny membership as returned by player search.
type UserInfoCard struct {
	MembershipID                string `json:"membershipId"`
	MembershipType              int    `json:"membershipType"`
	DisplayName                 string `json:"displayName"`
	BungieGlobalDisplayName     string `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode int    `json:"bungieGlobalDisplayNameCode"`
}

// UserMemberships lists the Destiny memberships linked to a Bungie.net account.
type UserMemberships struct {
	DestinyMemberships []UserInfoCard `json:"destinyMemberships"`
}

// Find returns the membership with the given id.
func (u *UserMemberships) Find(membershipID string) (UserInfoCard, bool) {
	for _, m := range u.DestinyMemberships {
		if m.MembershipID == membershipID {
			return m, true
		}
	}
	return UserInfoCard{}, false
}

// Character is the subset of DestinyCharacterComponent this tool reads.
type Character struct {
	CharacterID          string    `json:"characterId"`
	DateLastPlayed       time.Time `json:"dateLastPlayed"`
	EmblemPath           string    `json:"emblemPath"`
	EmblemBackgroundPath string    `json:"emblemBackgroundPath"`
}

// Item is an equipped inventory item.
type Item struct {
	ItemHash       uint32 `json:"itemHash"`
	ItemInstanceID string `json:"itemInstanceId"`
	BucketHash     uint32 `json:"bucketHash"`
}

// Equipment is the equipped set of one character.
type Equipment struct {
	Items []Item `json:"items"`
}

// PartyMember is an entry of the transitory party list.
type PartyMember struct {
	MembershipID string `json:"membershipId"`
	DisplayName  string `json:"displayName"`
	EmblemHash   uint32 `json:"emblemHash"`
	Status       int    `json:"status"`
}

// CharactersComponent is profile component 200.
type CharactersComponent struct {
	Data map[string]Character `json:"data"`
}

// EquipmentComponent is profile component 205.
type EquipmentComponent struct {
	Data map[string]Equipment `json:"data"`
}

// TransitoryComponent is profile component 1000.
type TransitoryComponent struct {
	Data *struct {
		PartyMembers []PartyMember `json:"partyMembers"`
	} `json:"data"`
}

// ProfileResponse is the subset of DestinyProfileResponse this tool reads.
// Components that were not requested or are private decode as nil.
type ProfileResponse struct {
	Characters            *CharactersComponent `json:"characters"`
	CharacterEquipment    *EquipmentComponent  `json:"characterEquipment"`
	ProfileTransitoryData *TransitoryComponent `json:"profileTransitoryData"`
}

// NewTransitory builds a transitory component holding the given party.
func NewTransitory(members ...PartyMember) *TransitoryComponent {
	t := &TransitoryComponent{}
	t.Data = &struct {
		PartyMembers []PartyMember `json:"partyMembers"`
	}{PartyMembers: members}
	return t
}

// PartyMembers returns the transitory party list, or nil when there is none.
func (p *ProfileResponse) PartyMembers() []PartyMember {
	if p == nil || p.ProfileTransitoryData == nil || p.ProfileTransitoryData.Data == nil {
		return nil
	}
	return p.ProfileTransitoryData.Data.PartyMembers
}

// CharacterMap returns the characters keyed by character id.
func (p *ProfileResponse) CharacterMap() map[string]Character {
	if p == nil || p.Characters == nil {
		return nil
	}
	return p.Characters.Data
}

// EquipmentOf returns the equipped items of a character.
func (p *ProfileResponse) EquipmentOf(characterID string) []Item {
	if p == nil || p.CharacterEquipment == nil {
		return nil
	}
	return p.CharacterEquipment.Data[characterID].Items
}

// DisplayProperties is the name and icon block shared by manifest definitions.
type DisplayProperties struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// ItemDefinition is the subset of DestinyInventoryItemDefinition this tool reads.
type ItemDefinition struct {
	Hash              uint32             `json:"hash"`
	DisplayProperties *DisplayProperties `json:"displayProperties"`
}

// Icon returns the item's icon path, or "" when it has none.
func (d *ItemDefinition) Icon() string {
	if d == nil || d.DisplayProperties == nil {
		return ""
	}
	return d.DisplayProperties.Icon
}
