package scoring

import "heartscore/internal/domain"

// RitualComplete reports whether logs contain any entry for the user, day
// and ritual. A single row is enough; the log's contents are not inspected.
func RitualComplete(logs []domain.BehaviorLog, userID int64, day string, rt domain.RitualType) bool {
	for _, l := range logs {
		if l.UserID == userID && l.LogDate == day && l.RitualType == rt {
			return true
		}
	}
	return false
}

// RitualScore averages morning and evening completion (100 each). The
// category counts as present only when the user logged anything that day.
func RitualScore(logs []domain.BehaviorLog, userID int64, day string) (int, bool) {
	present := false
	for _, l := range logs {
		if l.UserID == userID && l.LogDate == day {
			present = true
			break
		}
	}
	if !present {
		return 0, false
	}
	total := 0
	for _, rt := range []domain.RitualType{domain.RitualMorning, domain.RitualEvening} {
		if RitualComplete(logs, userID, day, rt) {
			total += 100
		}
	}
	return total / 2, true
}
