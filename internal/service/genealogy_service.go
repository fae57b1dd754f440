package service

import (
	"context"
	"strconv"

	"github.com/neonclub/neon-api/internal/cache"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/repository"
)

// GenealogyService renders placement-tree fragments for the portal and
// checks tree integrity for the back office.
type GenealogyService struct {
	distributorRepo repository.DistributorRepository
	compPlan        *plan.Plan
}

// NewGenealogyService creates the genealogy service.
func NewGenealogyService(distributorRepo repository.DistributorRepository, compPlan *plan.Plan) *GenealogyService {
	return &GenealogyService{
		distributorRepo: distributorRepo,
		compPlan:        compPlan,
	}
}

// TreeNode is one rendered node of a genealogy fragment.
type TreeNode struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	Position       string    `json:"position,omitempty"`
	Rank           string    `json:"rank"`
	IsActive       bool      `json:"is_active"`
	PersonalVolume int       `json:"personal_volume"`
	TeamVolume     int       `json:"team_volume"`
	Left           *TreeNode `json:"left,omitempty"`
	Right          *TreeNode `json:"right,omitempty"`
}

// GetTree renders the subtree rooted at distributorID down to depth levels,
// clamped to the plan maximum. Fragments are cached briefly; enrollments and
// volume rollups drop the cached fragments of every ancestor they touch.
func (s *GenealogyService) GetTree(ctx context.Context, distributorID uint, depth int) (*TreeNode, error) {
	if depth <= 0 || depth > s.compPlan.GenealogyMaxDepth {
		depth = s.compPlan.GenealogyMaxDepth
	}
	var cached TreeNode
	hit, err := cache.GetGenealogy(ctx, distributorID, depth, &cached)
	if err != nil {
		logger.Warnw("genealogy_cache_read_failed", "distributor_id", distributorID, "error", err)
	}
	if hit {
		return &cached, nil
	}

	root, err := s.distributorRepo.GetByID(distributorID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNotFound
	}

	node := toTreeNode(root)
	level := map[uint]*TreeNode{root.ID: node}
	for remaining := depth; remaining > 0 && len(level) > 0; remaining-- {
		parentIDs := make([]uint, 0, len(level))
		for id := range level {
			parentIDs = append(parentIDs, id)
		}
		children, err := s.distributorRepo.ListChildren(parentIDs)
		if err != nil {
			return nil, err
		}
		next := make(map[uint]*TreeNode, len(children))
		for i := range children {
			child := &children[i]
			if child.ParentID == nil {
				continue
			}
			parent := level[*child.ParentID]
			if parent == nil {
				continue
			}
			childNode := toTreeNode(child)
			switch child.Position {
			case constants.PositionLeft:
				parent.Left = childNode
			case constants.PositionRight:
				parent.Right = childNode
			}
			next[child.ID] = childNode
		}
		level = next
	}

	if err := cache.SetGenealogy(ctx, distributorID, depth, node); err != nil {
		logger.Warnw("genealogy_cache_write_failed", "distributor_id", distributorID, "error", err)
	}
	return node, nil
}

// IntegrityIssue is one violated tree invariant.
type IntegrityIssue struct {
	DistributorID uint   `json:"distributor_id"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail"`
}

// CheckIntegrity sweeps the whole tree for invariant violations: orphaned
// parents, duplicate slots, and team volume not equal to personal volume
// plus the children's team volumes.
func (s *GenealogyService) CheckIntegrity() ([]IntegrityIssue, error) {
	distributors, _, err := s.distributorRepo.List(repository.DistributorListFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Distributor, len(distributors))
	childSum := make(map[uint]int, len(distributors))
	slotSeen := make(map[uint]map[string]uint, len(distributors))

	var issues []IntegrityIssue
	for i := range distributors {
		d := &distributors[i]
		byID[d.ID] = d
	}
	for i := range distributors {
		d := &distributors[i]
		if d.ParentID == nil {
			continue
		}
		if byID[*d.ParentID] == nil {
			issues = append(issues, IntegrityIssue{
				DistributorID: d.ID,
				Kind:          "orphaned_parent",
				Detail:        "placement parent does not exist",
			})
			continue
		}
		if slotSeen[*d.ParentID] == nil {
			slotSeen[*d.ParentID] = make(map[string]uint, 2)
		}
		if other, taken := slotSeen[*d.ParentID][d.Position]; taken {
			issues = append(issues, IntegrityIssue{
				DistributorID: d.ID,
				Kind:          "duplicate_slot",
				Detail:        "slot also held by distributor " + strconv.FormatUint(uint64(other), 10),
			})
		} else {
			slotSeen[*d.ParentID][d.Position] = d.ID
		}
		childSum[*d.ParentID] += d.TeamVolume
	}
	for i := range distributors {
		d := &distributors[i]
		if d.TeamVolume != d.PersonalVolume+childSum[d.ID] {
			issues = append(issues, IntegrityIssue{
				DistributorID: d.ID,
				Kind:          "team_volume_mismatch",
				Detail:        "team volume does not equal personal volume plus children team volumes",
			})
		}
	}
	if len(issues) > 0 {
		logger.Warnw("genealogy_integrity_issues", "count", len(issues))
	}
	return issues, nil
}

func toTreeNode(d *models.Distributor) *TreeNode {
	return &TreeNode{
		ID:             d.ID,
		Code:           d.Code,
		Position:       d.Position,
		Rank:           d.Rank,
		IsActive:       d.IsActive,
		PersonalVolume: d.PersonalVolume,
		TeamVolume:     d.TeamVolume,
	}
}
