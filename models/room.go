package models

import "time"

const (
	// FirstRoomNumber and LastRoomNumber bound the fixed room pool.
	FirstRoomNumber = 101
	LastRoomNumber  = 140

	// RoomCapacity is the number of slots in every room.
	RoomCapacity = 2
)

// Room is one of the fixed rooms of the house. Occupied is maintained in the
// same transaction that moves a guest's RoomNumber, never recomputed on read.
type Room struct {
	Number    int       `gorm:"primaryKey;autoIncrement:false;column:number" json:"roomNumber"`
	Capacity  int       `gorm:"column:capacity;not null;default:2" json:"capacity"`
	Occupied  int       `gorm:"column:occupied;not null;default:0" json:"occupied"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FreeSlots returns how many more guests fit in the room.
func (r Room) FreeSlots() int {
	if free := r.Capacity - r.Occupied; free > 0 {
		return free
	}
	return 0
}

// Available reports whether at least one slot is free.
func (r Room) Available() bool { return r.FreeSlots() > 0 }

// ValidRoomNumber reports whether n belongs to the fixed room pool.
func ValidRoomNumber(n int) bool {
	return n >= FirstRoomNumber && n <= LastRoomNumber
}

// AllRooms returns the initial (empty) state of every room, ascending.
func AllRooms() []Room {
	rooms := make([]Room, 0, LastRoomNumber-FirstRoomNumber+1)
	for n := FirstRoomNumber; n <= LastRoomNumber; n++ {
		rooms = append(rooms, Room{Number: n, Capacity: RoomCapacity})
	}
	return rooms
}
