package engine

import "sort"

// SidePot is one pot tier. Eligible lists the non-folded players whose
// contribution reached the tier's level.
type SidePot struct {
	Amount    int      `json:"amount"`
	Eligible  []string `json:"eligiblePlayerIds"`
	IsMainPot bool     `json:"isMainPot"`
}

// buildPots constructs the main pot and side pots from the per-seat
// hand-total contribution vector. The smallest non-folded contribution
// seals the main pot; each higher distinct level seals a side pot whose
// eligible set shrinks, so eligibility sets are nested.
func buildPots(players []*Player) []SidePot {
	var levels []int
	seen := map[int]bool{}
	for _, p := range players {
		if p.inHand() && p.TotalBet > 0 && !seen[p.TotalBet] {
			seen[p.TotalBet] = true
			levels = append(levels, p.TotalBet)
		}
	}
	if len(levels) == 0 {
		return nil
	}
	sort.Ints(levels)

	pots := make([]SidePot, 0, len(levels))
	prev := 0
	for i, level := range levels {
		pot := SidePot{IsMainPot: i == 0}
		for _, p := range players {
			if !p.DealtIn {
				continue
			}
			contribution := p.TotalBet - prev
			if contribution > level-prev {
				contribution = level - prev
			}
			if contribution > 0 {
				pot.Amount += contribution
			}
			if p.inHand() && p.TotalBet >= level {
				pot.Eligible = append(pot.Eligible, p.UserID)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// Chips committed beyond the highest live level (a folded player who
	// had the table covered) join the last pot.
	excess := 0
	for _, p := range players {
		if p.DealtIn && p.TotalBet > prev {
			excess += p.TotalBet - prev
		}
	}
	if excess > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += excess
	}

	return pots
}

// potTotal sums the amounts across pots.
func potTotal(pots []SidePot) int {
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	return total
}

// splitEvenly divides amount between the winners, giving any remainder
// chips one at a time to the earliest seats clockwise from the dealer.
// winners are identified by seat; the returned map is seat -> payout.
func splitEvenly(amount int, winnerSeats []int, dealerSeat, maxSeats int) map[int]int {
	payouts := make(map[int]int, len(winnerSeats))
	if len(winnerSeats) == 0 {
		return payouts
	}

	share := amount / len(winnerSeats)
	remainder := amount % len(winnerSeats)
	for _, seat := range winnerSeats {
		payouts[seat] = share
	}

	// Order winners clockwise from the seat after the dealer.
	ordered := make([]int, len(winnerSeats))
	copy(ordered, winnerSeats)
	sort.Slice(ordered, func(i, j int) bool {
		return clockwiseDistance(dealerSeat, ordered[i], maxSeats) < clockwiseDistance(dealerSeat, ordered[j], maxSeats)
	})
	for i := 0; i < remainder; i++ {
		payouts[ordered[i]]++
	}
	return payouts
}

// clockwiseDistance returns how many seats past from (exclusive) seat sits.
func clockwiseDistance(from, seat, maxSeats int) int {
	d := (seat - from + maxSeats) % maxSeats
	if d == 0 {
		d = maxSeats
	}
	return d
}
