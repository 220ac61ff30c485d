package stakefolio

import (
	"github.com/etnz/stakefolio/date"
)

// DailyRewards sums the reward events of each UTC day of rng. Every day of
// the range has a point, zero when nothing was earned, in date order.
// Events outside the range are ignored.
func DailyRewards(events []RewardEvent, rng date.Range) []RewardPoint {
	perDay := make(map[date.Date]Gwei)
	for _, e := range events {
		d := date.Of(e.Timestamp)
		if rng.Contains(d) {
			perDay[d] = perDay[d].Add(e.Amount)
		}
	}
	res := make([]RewardPoint, 0, rng.Len())
	for d := range rng.Days() {
		res = append(res, RewardPoint{Date: d.Time(), Amount: perDay[d]})
	}
	return res
}
