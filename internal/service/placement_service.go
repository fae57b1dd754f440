package service

import (
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"

	"gorm.io/gorm"
)

// PlacementService finds open slots in the two-leg placement tree.
type PlacementService struct {
	distributorRepo repository.DistributorRepository
	searchMax       int
}

// NewPlacementService creates the placement service.
func NewPlacementService(distributorRepo repository.DistributorRepository, searchMax int) *PlacementService {
	if searchMax <= 0 {
		searchMax = 100000
	}
	return &PlacementService{
		distributorRepo: distributorRepo,
		searchMax:       searchMax,
	}
}

// Slot is one open position under a parent.
type Slot struct {
	ParentID uint
	Position string
}

// FindOpenSlot locates the placement slot for a new node under sponsorID.
// The preferred side is honored when that immediate slot is empty. Otherwise
// the sponsor's subtree is searched breadth first, shallower level first and
// left before right within a level, so placement is deterministic for a
// given tree shape.
func (s *PlacementService) FindOpenSlot(tx *gorm.DB, sponsorID uint, preferred string) (*Slot, error) {
	repo := s.distributorRepo.WithTx(tx)
	sponsor, err := repo.GetByID(sponsorID)
	if err != nil {
		return nil, err
	}
	if sponsor == nil {
		return nil, ErrInvalidSponsor
	}
	if preferred != "" && preferred != constants.PositionLeft && preferred != constants.PositionRight {
		return nil, ErrInvalidPosition
	}

	if preferred != "" {
		occupied, err := repo.GetChild(sponsorID, preferred)
		if err != nil {
			return nil, err
		}
		if occupied == nil {
			return &Slot{ParentID: sponsorID, Position: preferred}, nil
		}
	}

	frontier := []uint{sponsorID}
	visited := 0
	for len(frontier) > 0 {
		children, err := repo.ListChildren(frontier)
		if err != nil {
			return nil, err
		}
		bySlot := make(map[uint]map[string]bool, len(frontier))
		for _, child := range children {
			if child.ParentID == nil {
				continue
			}
			if bySlot[*child.ParentID] == nil {
				bySlot[*child.ParentID] = make(map[string]bool, 2)
			}
			bySlot[*child.ParentID][child.Position] = true
		}
		// frontier ids are appended left child before right child, so the
		// first open slot found is the leftmost on the shallowest level.
		for _, parentID := range frontier {
			for _, position := range []string{constants.PositionLeft, constants.PositionRight} {
				if !bySlot[parentID][position] {
					return &Slot{ParentID: parentID, Position: position}, nil
				}
			}
		}
		next := make([]uint, 0, len(children))
		for _, parentID := range frontier {
			for _, child := range children {
				if child.ParentID != nil && *child.ParentID == parentID {
					next = append(next, child.ID)
				}
			}
		}
		visited += len(frontier)
		if visited > s.searchMax {
			logger.Warnw("placement_search_limit_reached",
				"sponsor_id", sponsorID,
				"visited", visited,
				"limit", s.searchMax,
			)
			return nil, ErrTreeFull
		}
		frontier = next
	}
	return nil, ErrTreeFull
}

// AncestorChain walks placement parents from the given node up to the root.
// The returned slice is ordered node-ward: index 0 is the immediate parent.
func (s *PlacementService) AncestorChain(tx *gorm.DB, d *models.Distributor) ([]*models.Distributor, error) {
	repo := s.distributorRepo.WithTx(tx)
	var chain []*models.Distributor
	current := d
	for current != nil && current.ParentID != nil {
		parent, err := repo.GetByID(*current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}
