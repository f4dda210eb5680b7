package repository

import (
	"fmt"
	"slices"

	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
)

// TreeMove re-parents an org. Descendant tree paths starting with OldPrefix
// are rewritten to start with NewPrefix.
type TreeMove struct {
	ParentID  int64
	TreePath  string
	OldPrefix string
	NewPrefix string
}

// PlanMove works out the path rewrite for putting org below parent. A nil
// parent makes org a root. An org cannot move below itself or one of its
// descendants.
func PlanMove(org, parent *models.Org) (*TreeMove, error) {
	move := &TreeMove{TreePath: ",", OldPrefix: org.ChildTreePath()}
	if parent != nil {
		if parent.ID == org.ID {
			return nil, fmt.Errorf("org %d cannot be its own parent: %w", org.ID, exception.ErrIllegalArgument)
		}
		if slices.Contains(parent.AncestorIDs(), org.ID) {
			return nil, fmt.Errorf("org %d cannot move below its descendant %d: %w", org.ID, parent.ID, exception.ErrIllegalArgument)
		}
		move.ParentID = parent.ID
		move.TreePath = parent.ChildTreePath()
	}

	target := *org
	target.TreePath = move.TreePath
	move.NewPrefix = target.ChildTreePath()
	return move, nil
}
