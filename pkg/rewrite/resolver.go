package rewrite

import (
	"strconv"

	"github.com/dd0wney/cluso-rewrite/pkg/storage"
)

// resolveIdentity returns a free identity for want within graph. If
// want is taken, the collision counter of the node holding it advances
// and the candidate becomes want plus the counter's new value; the
// probe repeats until a genuinely free identity is found, so a name
// like "a1" created by hand can never be reissued. Rows in exclude are
// treated as absent, which lets a merge keep one of its own sources'
// identities. The counter only moves on collision and only commits
// with the transaction.
func resolveIdentity(tx *storage.Tx, graph, want string, exclude ...uint64) string {
	holder, taken := tx.LookupIdentity(graph, want, exclude...)
	if !taken {
		return want
	}
	for {
		n := tx.BumpSeq(holder.ID)
		candidate := want + strconv.FormatUint(n, 10)
		if _, taken := tx.LookupIdentity(graph, candidate, exclude...); !taken {
			return candidate
		}
	}
}

// rowIdentity renders a backend row id as a string identity, used by
// ignore-naming mode for callers that guarantee uniqueness externally.
// If the caller's guarantee fails, commit rejects the duplicate with
// storage.ErrIdentityConflict.
func rowIdentity(rowID uint64) string {
	return strconv.FormatUint(rowID, 10)
}
