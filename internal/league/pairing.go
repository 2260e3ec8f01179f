package league

import "sort"

// PairingQuota is the number of opponents a team gets in one weekly run.
const PairingQuota = 2

type RatedTeam struct {
	Name   string
	Rating int
}

type Pairing struct {
	TeamA string
	TeamB string
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

type pairer struct {
	teams  []RatedTeam
	quota  int
	count  map[string]int
	used   map[[2]string]bool
	result []Pairing
}

// Pair matches teams greedily in descending rating order. No team gets more
// than quota opponents and no pair repeats. Ties in rating keep input order,
// so equal input always yields equal output. Teams that cannot fill their
// quota simply play fewer matches.
//
// Pairing happens in three passes:
//   - one round per quota slot, where each team takes at most one new opponent
//     and scans for the highest rated team still free in that round;
//   - a relaxed pass without the per-round limit;
//   - a repair pass that splits an existing pair (x, y) into (t, x) and (u, y)
//     when teams t and u are still short of the quota.
func Pair(teams []RatedTeam, quota int) []Pairing {
	sorted := make([]RatedTeam, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	p := &pairer{
		teams: sorted,
		quota: quota,
		count: make(map[string]int, len(sorted)),
		used:  make(map[[2]string]bool),
	}

	for round := 0; round < quota; round++ {
		busy := make(map[string]bool, len(sorted))
		for i, t := range sorted {
			if p.full(t.Name) || busy[t.Name] {
				continue
			}
			for j, o := range sorted {
				if i == j || busy[o.Name] || !p.open(t.Name, o.Name) {
					continue
				}
				p.add(t.Name, o.Name)
				busy[t.Name], busy[o.Name] = true, true
				break
			}
		}
	}

	for i, t := range sorted {
		for j, o := range sorted {
			if p.full(t.Name) {
				break
			}
			if i != j && p.open(t.Name, o.Name) {
				p.add(t.Name, o.Name)
			}
		}
	}

	for p.repair() {
	}

	return p.result
}

func (p *pairer) full(name string) bool {
	return p.count[name] >= p.quota
}

// open reports whether a and b can still be paired.
func (p *pairer) open(a, b string) bool {
	return a != b && !p.full(a) && !p.full(b) && !p.used[pairKey(a, b)]
}

func (p *pairer) add(a, b string) {
	p.used[pairKey(a, b)] = true
	p.count[a]++
	p.count[b]++
	p.result = append(p.result, Pairing{TeamA: a, TeamB: b})
}

// repair performs one split of an existing pair and reports whether it did.
// Split pairs stay marked as used, so every split grows the result and the
// loop in Pair terminates.
func (p *pairer) repair() bool {
	for ti, t := range p.teams {
		if p.full(t.Name) {
			continue
		}
		for _, u := range p.teams[ti:] {
			if p.full(u.Name) || (t.Name == u.Name && p.quota-p.count[t.Name] < 2) {
				continue
			}
			for k, existing := range p.result {
				x, y := existing.TeamA, existing.TeamB
				if x == t.Name || x == u.Name || y == t.Name || y == u.Name {
					continue
				}
				for _, o := range [][2]string{{x, y}, {y, x}} {
					if p.used[pairKey(t.Name, o[0])] || p.used[pairKey(u.Name, o[1])] {
						continue
					}
					p.result = append(p.result[:k], p.result[k+1:]...)
					p.count[x]--
					p.count[y]--
					p.add(o[0], t.Name)
					p.add(o[1], u.Name)
					return true
				}
			}
		}
	}
	return false
}
