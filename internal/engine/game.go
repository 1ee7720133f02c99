// Package engine implements the per-room hand state machine: deck,
// dealing, betting rounds, side pots, straddles, run-it-multiple boards,
// bomb pots and showdown resolution. Engine methods are synchronous and
// perform no I/O; the room orchestrator serializes every call.
package engine

import (
	"sort"

	"github.com/quadsuit/pokerroom/internal/deck"
)

// cardSource is the deck surface the engine consumes. Production always
// uses *deck.Deck; tests substitute stacked decks for deterministic deals.
type cardSource interface {
	Reset(numDecks int)
	Deal() (deck.Card, error)
	DealN(n int) ([]deck.Card, error)
	Burn() error
	DealRunOut(cardsPerBoard, numBoards int) ([][]deck.Card, error)
	Remaining() int
	HandID() string
	SeedCommitment() string
	RevealSeed() string
}

// Option configures a Game at construction.
type Option func(*Game)

// WithCardSource substitutes the deck implementation.
func WithCardSource(src cardSource) Option {
	return func(g *Game) {
		g.deck = src
	}
}

// Game owns one room's current hand.
type Game struct {
	variant  Variant
	strategy variantStrategy
	stakes   Stakes
	rules    CustomRules
	maxSeats int

	pendingStakes *Stakes
	pendingRules  *CustomRules

	players []*Player // sorted by seat

	handNum    int
	dealerSeat int
	sbSeat     int
	bbSeat     int
	phase      Phase
	deck       cardSource

	community   []deck.Card
	extraBoards [][]deck.Card
	dualBoard   bool
	bombPot     bool
	ghostCards  []deck.Card

	pot        int // chips collected from completed streets and antes
	sidePots   []SidePot
	currentBet int
	minRaise   int

	currentSeat int

	straddles      []Straddle
	straddleOpen   bool
	straddleSeat   int
	straddleIndex  int
	straddlePrompt *StraddlePrompt

	runIt         *RunItPrompt
	awaitingRunIt bool
	runItChoice   int

	runoutFrom Phase

	winners    []Winner
	sevenDeuce *SevenDeuceBonus
	wonByFold  bool

	handID         string
	seedCommitment string
	revealedSeed   string

	chipBaseline int
}

// NewGame creates an engine for the given variant and configuration.
func NewGame(variant Variant, stakes Stakes, rules CustomRules, maxSeats int, opts ...Option) (*Game, error) {
	strategy, err := strategyFor(variant)
	if err != nil {
		return nil, newError(CodeSwitchFailed, "%v", err)
	}
	if maxSeats < 2 || maxSeats > 10 {
		maxSeats = 10
	}
	g := &Game{
		variant:     variant,
		strategy:    strategy,
		stakes:      stakes,
		rules:       rules,
		maxSeats:    maxSeats,
		phase:       PhaseWaiting,
		dealerSeat:  -1,
		sbSeat:      -1,
		bbSeat:      -1,
		currentSeat: -1,
		deck:        deck.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// InHand reports whether a hand is currently in progress.
func (g *Game) InHand() bool {
	return g.phase != PhaseWaiting && g.phase != PhaseComplete
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Variant returns the active variant.
func (g *Game) Variant() Variant { return g.variant }

// Rules returns the active rules.
func (g *Game) Rules() CustomRules { return g.rules }

// Stakes returns the active stakes.
func (g *Game) Stakes() Stakes { return g.stakes }

// HandNumber returns the number of the current (or last) hand.
func (g *Game) HandNumber() int { return g.handNum }

// HandID returns the deck's hand id for the current hand.
func (g *Game) HandID() string { return g.handID }

// DealerSeat returns the current dealer button seat.
func (g *Game) DealerSeat() int { return g.dealerSeat }

// CurrentSeat returns the actor seat, or -1 when nobody is to act.
func (g *Game) CurrentSeat() int { return g.currentSeat }

// CurrentBetAmount returns the table's current street bet level.
func (g *Game) CurrentBetAmount() int { return g.currentBet }

// MinRaiseAmount returns the current minimum raise increment.
func (g *Game) MinRaiseAmount() int { return g.minRaise }

// CurrentPlayer returns the player whose turn it is, or nil.
func (g *Game) CurrentPlayer() *Player {
	if g.currentSeat < 0 {
		return nil
	}
	return g.playerAtSeat(g.currentSeat)
}

// Winners returns the winners of the last completed hand.
func (g *Game) Winners() []Winner { return g.winners }

// WonByFold reports whether the last hand ended with everyone folding.
func (g *Game) WonByFold() bool { return g.wonByFold }

// SevenDeuceBonusResult returns the 7-2 bonus payments of the last hand.
func (g *Game) SevenDeuceBonusResult() *SevenDeuceBonus { return g.sevenDeuce }

// RunoutFrom returns the phase at which an all-in or fold runout began,
// or "" if the hand reached its end street through betting.
func (g *Game) RunoutFrom() Phase { return g.runoutFrom }

// Players returns the seated players in seat order.
func (g *Game) Players() []*Player { return g.players }

// PlayerByID returns the seated player with the given user id.
func (g *Game) PlayerByID(userID string) *Player {
	for _, p := range g.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (g *Game) playerAtSeat(seat int) *Player {
	for _, p := range g.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// AddPlayer seats a player. Only allowed between hands; seat conflicts
// and duplicate ids are rejected.
func (g *Game) AddPlayer(p *Player) error {
	if g.InHand() {
		return newError(CodeJoinFailed, "cannot join mid-hand")
	}
	if p.Seat < 0 || p.Seat >= g.maxSeats {
		return newError(CodeJoinFailed, "seat %d out of range", p.Seat)
	}
	if g.playerAtSeat(p.Seat) != nil {
		return newError(CodeAlreadySeated, "seat %d is occupied", p.Seat)
	}
	if g.PlayerByID(p.UserID) != nil {
		return newError(CodeAlreadySeated, "player already has a seat")
	}
	g.players = append(g.players, p)
	sort.Slice(g.players, func(i, j int) bool { return g.players[i].Seat < g.players[j].Seat })
	return nil
}

// RemovePlayer unseats a player between hands.
func (g *Game) RemovePlayer(userID string) error {
	if g.InHand() {
		return newError(CodeInvalidAction, "cannot leave seat mid-hand")
	}
	for i, p := range g.players {
		if p.UserID == userID {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return nil
		}
	}
	return newError(CodeNotSeated, "player is not seated")
}

// UpdateRules stores new rules; they take effect at the next StartHand.
func (g *Game) UpdateRules(rules CustomRules) {
	if g.InHand() {
		g.pendingRules = &rules
		return
	}
	g.rules = rules
}

// UpdateStakes stores new stakes; they take effect at the next StartHand.
func (g *Game) UpdateStakes(stakes Stakes) {
	if g.InHand() {
		g.pendingStakes = &stakes
		return
	}
	g.stakes = stakes
}

// SwitchVariant changes the variant between hands.
func (g *Game) SwitchVariant(variant Variant) error {
	if g.InHand() {
		return newError(CodeSwitchFailed, "cannot switch variant during a hand")
	}
	strategy, err := strategyFor(variant)
	if err != nil {
		return newError(CodeSwitchFailed, "%v", err)
	}
	g.variant = variant
	g.strategy = strategy
	return nil
}

// eligibleSeats returns seats that can be dealt into a new hand.
func (g *Game) eligibleSeats() []*Player {
	var out []*Player
	for _, p := range g.players {
		if p.Status == StatusActive && p.Chips > 0 {
			out = append(out, p)
		}
	}
	return out
}

// CountEligible returns how many seats could be dealt into a new hand.
func (g *Game) CountEligible() int {
	return len(g.eligibleSeats())
}

// NextDealerSeat returns the seat the button will move to at the next
// StartHand, so the orchestrator can consult seat preferences (bomb pot)
// without duplicating advancement logic.
func (g *Game) NextDealerSeat() int {
	eligible := g.eligibleSeats()
	if len(eligible) == 0 {
		return -1
	}
	return g.nextSeatAmong(eligible, g.dealerSeat)
}

// nextSeatAmong returns the first seat clockwise after from among players.
func (g *Game) nextSeatAmong(players []*Player, from int) int {
	best := -1
	bestDist := g.maxSeats + 1
	for _, p := range players {
		d := clockwiseDistance(from, p.Seat, g.maxSeats)
		if d < bestDist {
			bestDist = d
			best = p.Seat
		}
	}
	return best
}

// nextActorSeat returns the next seat clockwise after from that can act,
// or -1 if none.
func (g *Game) nextActorSeat(from int) int {
	var actors []*Player
	for _, p := range g.players {
		if p.canAct() {
			actors = append(actors, p)
		}
	}
	if len(actors) == 0 {
		return -1
	}
	return g.nextSeatAmong(actors, from)
}

// nextInHandSeat returns the next seat clockwise after from still holding
// cards, or -1.
func (g *Game) nextInHandSeat(from int) int {
	var live []*Player
	for _, p := range g.players {
		if p.inHand() {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return -1
	}
	return g.nextSeatAmong(live, from)
}

func (g *Game) countInHand() int {
	n := 0
	for _, p := range g.players {
		if p.inHand() {
			n++
		}
	}
	return n
}

func (g *Game) countActors() int {
	n := 0
	for _, p := range g.players {
		if p.canAct() {
			n++
		}
	}
	return n
}

func (g *Game) countAllIn() int {
	n := 0
	for _, p := range g.players {
		if p.inHand() && p.AllIn {
			n++
		}
	}
	return n
}

// StartHand initializes and deals a new hand. A bombPotAmount > 0 makes
// it a bomb pot: every dealt-in seat antes that amount and the hand jumps
// straight to the flop, on two boards when dualBoard is set.
func (g *Game) StartHand(bombPotAmount int, dualBoard bool) error {
	if g.InHand() {
		return newError(CodeInvalidAction, "hand already in progress")
	}

	if g.pendingRules != nil {
		g.rules = *g.pendingRules
		g.pendingRules = nil
	}
	if g.pendingStakes != nil {
		g.stakes = *g.pendingStakes
		g.pendingStakes = nil
	}

	eligible := g.eligibleSeats()
	if len(eligible) < 2 {
		g.phase = PhaseWaiting
		return newError(CodeNotEnoughPlayers, "need at least 2 active players with chips")
	}

	g.handNum++
	g.dealerSeat = g.nextSeatAmong(eligible, g.dealerSeat)
	g.phase = PhaseStarting

	for _, p := range g.players {
		p.resetForHand()
	}
	for _, p := range eligible {
		p.DealtIn = true
	}

	g.deck.Reset(1)
	g.handID = g.deck.HandID()
	g.seedCommitment = g.deck.SeedCommitment()
	g.revealedSeed = ""

	g.community = nil
	g.extraBoards = nil
	g.ghostCards = nil
	g.dualBoard = false
	g.bombPot = false
	g.pot = 0
	g.sidePots = nil
	g.currentBet = 0
	g.minRaise = g.stakes.BigBlind
	g.currentSeat = -1
	g.sbSeat, g.bbSeat = -1, -1
	g.straddles = nil
	g.straddleOpen = false
	g.straddlePrompt = nil
	g.straddleIndex = 0
	g.runIt = nil
	g.awaitingRunIt = false
	g.runItChoice = 0
	g.runoutFrom = ""
	g.winners = nil
	g.sevenDeuce = nil
	g.wonByFold = false

	g.chipBaseline = 0
	for _, p := range eligible {
		g.chipBaseline += p.Chips
	}

	if bombPotAmount > 0 {
		return g.startBombPot(bombPotAmount, dualBoard)
	}
	return g.startBlindHand()
}

func (g *Game) startBombPot(amount int, dualBoard bool) error {
	g.bombPot = true
	g.dualBoard = dualBoard

	for _, p := range g.players {
		if p.DealtIn {
			p.pay(min(amount, p.Chips))
		}
	}
	g.collectBets()

	if err := g.dealHoleCards(); err != nil {
		return err
	}

	// Bomb pots skip preflop betting entirely.
	g.phase = PhaseFlop
	if err := g.dealBoardCards(3); err != nil {
		return err
	}
	if dualBoard {
		g.extraBoards = append(g.extraBoards, nil)
		if err := g.dealExtraBoardCards(0, 3); err != nil {
			return err
		}
	}

	g.currentBet = 0
	g.minRaise = g.streetMinRaise()
	g.currentSeat = g.nextActorSeat(g.dealerSeat)
	if g.currentSeat == -1 {
		// Everyone ended up all-in on the ante.
		return g.runOutAndResolve()
	}
	return nil
}

func (g *Game) startBlindHand() error {
	if g.stakes.Ante > 0 {
		for _, p := range g.players {
			if p.DealtIn {
				p.pay(min(g.stakes.Ante, p.Chips))
			}
		}
		g.collectBets()
	}

	dealtIn := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		if p.DealtIn {
			dealtIn = append(dealtIn, p)
		}
	}

	if len(dealtIn) == 2 {
		// Heads-up: the dealer posts the small blind.
		g.sbSeat = g.dealerSeat
		g.bbSeat = g.nextSeatAmong(dealtIn, g.sbSeat)
	} else {
		g.sbSeat = g.nextSeatAmong(dealtIn, g.dealerSeat)
		g.bbSeat = g.nextSeatAmong(dealtIn, g.sbSeat)
	}

	if sb := g.playerAtSeat(g.sbSeat); sb != nil && g.stakes.SmallBlind > 0 {
		sb.pay(min(g.stakes.SmallBlind, sb.Chips))
	}
	if bb := g.playerAtSeat(g.bbSeat); bb != nil && g.stakes.BigBlind > 0 {
		bb.pay(min(g.stakes.BigBlind, bb.Chips))
	}
	g.currentBet = g.stakes.BigBlind
	g.minRaise = g.streetMinRaise()

	if err := g.dealHoleCards(); err != nil {
		return err
	}
	g.phase = PhasePreflop

	if g.straddleEligible() {
		// First-to-act is resolved by EndStraddlePhase once the chain
		// settles; no action is legal until then.
		g.straddleOpen = true
		g.straddleSeat = g.nextActorSeat(g.bbSeat)
		g.currentSeat = -1
		return nil
	}

	g.setPreflopFirstToAct()
	return nil
}

// setPreflopFirstToAct applies the variant's preflop opening rule: the
// seat three after the dealer for 3+ players, the dealer itself heads-up.
func (g *Game) setPreflopFirstToAct() {
	if g.countDealtIn() == 2 {
		dealer := g.playerAtSeat(g.dealerSeat)
		if dealer != nil && dealer.canAct() {
			g.currentSeat = g.dealerSeat
		} else {
			g.currentSeat = g.nextActorSeat(g.dealerSeat)
		}
		return
	}
	g.currentSeat = g.nextActorSeat(g.bbSeat)
}

func (g *Game) countDealtIn() int {
	n := 0
	for _, p := range g.players {
		if p.DealtIn {
			n++
		}
	}
	return n
}

// dealHoleCards deals round-robin starting at the small blind (or the
// seat after the dealer in a bomb pot).
func (g *Game) dealHoleCards() error {
	start := g.sbSeat
	if start == -1 {
		start = g.nextInHandSeat(g.dealerSeat)
	}

	order := make([]*Player, 0, len(g.players))
	seat := start
	for i := 0; i < g.countDealtIn(); i++ {
		p := g.playerAtSeat(seat)
		order = append(order, p)
		seat = g.nextSeatAmongDealtIn(seat)
	}

	for round := 0; round < g.strategy.HoleCardCount(); round++ {
		for _, p := range order {
			card, err := g.deck.Deal()
			if err != nil {
				return invariantErr("deck underflow dealing hole cards: %v", err)
			}
			p.holeCards = append(p.holeCards, card)
		}
	}
	return nil
}

func (g *Game) nextSeatAmongDealtIn(from int) int {
	var dealt []*Player
	for _, p := range g.players {
		if p.DealtIn {
			dealt = append(dealt, p)
		}
	}
	return g.nextSeatAmong(dealt, from)
}

// dealBoardCards burns one and deals n cards onto the primary board.
func (g *Game) dealBoardCards(n int) error {
	if err := g.deck.Burn(); err != nil {
		return invariantErr("deck underflow on burn: %v", err)
	}
	cards, err := g.deck.DealN(n)
	if err != nil {
		return invariantErr("deck underflow dealing board: %v", err)
	}
	g.community = append(g.community, cards...)
	return nil
}

// dealExtraBoardCards burns one and deals n cards onto extra board i.
func (g *Game) dealExtraBoardCards(i, n int) error {
	if err := g.deck.Burn(); err != nil {
		return invariantErr("deck underflow on burn: %v", err)
	}
	cards, err := g.deck.DealN(n)
	if err != nil {
		return invariantErr("deck underflow dealing board: %v", err)
	}
	g.extraBoards[i] = append(g.extraBoards[i], cards...)
	return nil
}

// collectBets sweeps street bets into the pot.
func (g *Game) collectBets() {
	for _, p := range g.players {
		if p.Bet > 0 {
			g.pot += p.Bet
			p.Bet = 0
		}
	}
}

// streetMinRaise is the opening minimum raise increment for a street: the
// big blind, or the ante when the room runs no blinds.
func (g *Game) streetMinRaise() int {
	if g.stakes.BigBlind > 0 {
		return g.stakes.BigBlind
	}
	if g.stakes.Ante > 0 {
		return g.stakes.Ante
	}
	return 1
}

// PotTotal returns the pot including uncollected street bets.
func (g *Game) PotTotal() int {
	total := g.pot
	for _, p := range g.players {
		total += p.Bet
	}
	return total
}

// AbortHand cancels the hand after an invariant violation: every in-flight
// contribution is refunded and the room returns to waiting.
func (g *Game) AbortHand() {
	for _, p := range g.players {
		if p.DealtIn {
			p.Chips += p.TotalBet
		}
		p.Bet = 0
		p.TotalBet = 0
		p.HasActed = false
		p.AllIn = false
		p.Folded = false
		p.DealtIn = false
		p.holeCards = nil
	}
	g.pot = 0
	g.sidePots = nil
	g.currentBet = 0
	g.currentSeat = -1
	g.straddleOpen = false
	g.straddlePrompt = nil
	g.runIt = nil
	g.awaitingRunIt = false
	g.winners = nil
	g.phase = PhaseWaiting
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
