package reconcile

import "github.com/davangere-police/case-registry-api/models"

// CanAccess reports whether the actor may read or write records belonging to
// targetStation. The SP rank has district-wide authority and matches every
// station; every other rank matches only its own home station, by exact
// case-sensitive comparison. An actor with no home station matches nothing.
//
// Callers decide what a false result means: 403 for single-record
// operations, a per-row error entry for batch operations.
func CanAccess(actor models.Actor, targetStation string) bool {
	if actor.Role == models.RoleSP {
		return true
	}
	if actor.Station == "" {
		return false
	}
	return targetStation == actor.Station
}
