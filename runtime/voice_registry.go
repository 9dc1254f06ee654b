package runtime

import (
	"sort"

	"huddle/domain"

	"github.com/samber/lo"
)

type Set map[domain.UserID]struct{}

// VoiceRoomRegistry tracks who sits in which voice room.
// Rooms are created on first join and removed as soon as they are empty.
// It is not safe for concurrent use: the coordinator owns it.
type VoiceRoomRegistry struct {
	rooms map[domain.RoomID]Set
}

func NewVoiceRoomRegistry() *VoiceRoomRegistry {
	return &VoiceRoomRegistry{rooms: make(map[domain.RoomID]Set)}
}

// Join adds userID to the room and returns the members after the join.
// added is false when the user was already in the room.
func (r *VoiceRoomRegistry) Join(roomID domain.RoomID, userID domain.UserID) (members []domain.UserID, added bool) {
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(Set)
	}
	_, present := r.rooms[roomID][userID]
	r.rooms[roomID][userID] = struct{}{}
	return r.Members(roomID), !present
}

// Leave removes userID from the room, dropping the room entry when nobody is left.
func (r *VoiceRoomRegistry) Leave(roomID domain.RoomID, userID domain.UserID) bool {
	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok = members[userID]; !ok {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// PurgeUser removes userID from every room and returns the rooms it left.
func (r *VoiceRoomRegistry) PurgeUser(userID domain.UserID) []domain.RoomID {
	var left []domain.RoomID
	for _, roomID := range r.roomIDs() {
		if r.Leave(roomID, userID) {
			left = append(left, roomID)
		}
	}
	return left
}

// Members returns the sorted member ids of a room, nil when the room does not exist.
func (r *VoiceRoomRegistry) Members(roomID domain.RoomID) []domain.UserID {
	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	ids := lo.Keys(members)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *VoiceRoomRegistry) roomIDs() []domain.RoomID {
	ids := lo.Keys(r.rooms)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
