package room

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/fanout"
	"github.com/quadsuit/pokerroom/internal/protocol"
)

// codeAlphabet is the 32-symbol invite-code alphabet: A-Z without the
// confusable I and O, plus the digits 2-9.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// CreateOptions configures a new room.
type CreateOptions struct {
	Name        string
	Variant     engine.Variant
	Stakes      engine.Stakes
	MaxPlayers  int
	Private     bool
	Password    string
	HostID      string
	CustomRules *engine.CustomRules
}

// Registry is the directory of open rooms: id and invite-code lookup plus
// the user -> current room mapping.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	codes     map[string]string // code -> room id
	userRooms map[string]string // user id -> room id

	clock  quartz.Clock
	pub    *fanout.Publisher
	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(clock quartz.Clock, pub *fanout.Publisher, logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		codes:     make(map[string]string),
		userRooms: make(map[string]string),
		clock:     clock,
		pub:       pub,
		logger:    logger.With().Str("component", "registry").Logger(),
	}
}

// Create allocates a room with a fresh id and a unique invite code.
func (reg *Registry) Create(opts CreateOptions) (*Room, error) {
	if opts.MaxPlayers < 2 || opts.MaxPlayers > 10 {
		opts.MaxPlayers = 10
	}
	if opts.Variant == "" {
		opts.Variant = engine.VariantTexas
	}
	rules := engine.DefaultRules()
	if opts.CustomRules != nil {
		rules = *opts.CustomRules
	}

	game, err := engine.NewGame(opts.Variant, opts.Stakes, rules, opts.MaxPlayers)
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.newCodeLocked()
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:         uuid.New().String(),
		Code:       code,
		Name:       opts.Name,
		Private:    opts.Private,
		HostID:     opts.HostID,
		MaxPlayers: opts.MaxPlayers,
		password:   opts.Password,
		game:       game,
		status:     StatusWaiting,
		members:    make(map[string]string),
		clock:      reg.clock,
		pub:        reg.pub,
		logger:     reg.logger.With().Str("room_code", code).Logger(),
		onClose:    reg.releaseRoom,
	}
	reg.rooms[r.ID] = r
	reg.codes[code] = r.ID

	reg.logger.Info().Str("room_id", r.ID).Str("room_code", code).Str("host_id", opts.HostID).Msg("Room created")
	return r, nil
}

// newCodeLocked draws 6 uniform symbols and rejects collisions with any
// open room's code.
func (reg *Registry) newCodeLocked() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		var sb strings.Builder
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("room code randomness failed: %w", err)
		}
		for _, b := range buf {
			// 32 symbols: 5 bits gives an exactly uniform draw.
			sb.WriteByte(codeAlphabet[int(b&0x1f)])
		}
		code := sb.String()
		if _, taken := reg.codes[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("room code space exhausted")
}

// Get returns the room by id.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// GetByCode returns the room by invite code, case-insensitively.
func (reg *Registry) GetByCode(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.codes[strings.ToUpper(code)]
	if !ok {
		return nil, false
	}
	r, ok := reg.rooms[id]
	return r, ok
}

// Close shuts a room down and removes it from the directory.
func (reg *Registry) Close(id string) {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return
	}
	r.Close() // releaseRoom runs via onClose
}

// releaseRoom is the room's onClose hook: the code becomes reusable the
// moment the room is gone.
func (reg *Registry) releaseRoom(r *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, r.ID)
	delete(reg.codes, r.Code)
	for userID, roomID := range reg.userRooms {
		if roomID == r.ID {
			delete(reg.userRooms, userID)
		}
	}
}

// ListPublic returns the public rooms.
func (reg *Registry) ListPublic() []protocol.RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		if !r.Private {
			rooms = append(rooms, r)
		}
	}
	reg.mu.RUnlock()

	infos := make([]protocol.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// BindUser records which room a user is currently in.
func (reg *Registry) BindUser(userID, roomID string) {
	reg.mu.Lock()
	reg.userRooms[userID] = roomID
	reg.mu.Unlock()
}

// UnbindUser clears the user's room mapping.
func (reg *Registry) UnbindUser(userID string) {
	reg.mu.Lock()
	delete(reg.userRooms, userID)
	reg.mu.Unlock()
}

// RoomForUser returns the room the user is currently in.
func (reg *Registry) RoomForUser(userID string) (*Room, bool) {
	reg.mu.RLock()
	roomID, ok := reg.userRooms[userID]
	if !ok {
		reg.mu.RUnlock()
		return nil, false
	}
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	return r, ok
}
