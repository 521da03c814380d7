package engine

// Verdict is the final allow/block decision an ABP-style policy reduces a
// hit list to.
type Verdict string

const (
	VerdictAllow   Verdict = "ALLOW"
	VerdictBlock   Verdict = "BLOCK"
	VerdictNoMatch Verdict = "NOMATCH"
)

// DecideFromHits reduces an engine's collected accept-id hit list to a
// Verdict using idToAction, grounded on the original implementation's
// decide_from_rule_ids: any ALLOW hit wins over any BLOCK hit; otherwise
// BLOCK if any hit exists; otherwise NOMATCH. A rule id absent from
// idToAction defaults to BLOCK, matching the original's get(rid, "BLOCK").
// This is a pure function kept outside Engine so the engine itself stays
// policy-agnostic.
func DecideFromHits(hits []uint32, idToAction map[uint32]Verdict) (Verdict, []uint32) {
	var allowed, blocked []uint32

	for _, id := range hits {
		action, ok := idToAction[id]
		if !ok {
			action = VerdictBlock
		}
		switch action {
		case VerdictAllow:
			allowed = append(allowed, id)
		case VerdictBlock:
			blocked = append(blocked, id)
		}
	}

	if len(allowed) > 0 {
		return VerdictAllow, allowed
	}
	if len(blocked) > 0 {
		return VerdictBlock, blocked
	}
	return VerdictNoMatch, nil
}
