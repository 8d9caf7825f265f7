// Package organization provides CRUD operations for the organization
// hierarchy. Writes keep the parent relation acyclic and the stored level in
// line with the depth of each node.
package organization

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrOrganizationNotFound is returned when an organization is not found.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrNameEmpty is returned when an organization has no name.
	ErrNameEmpty = errors.New("organization name cannot be empty")
	// ErrParentNotFound is returned when the requested parent does not exist.
	ErrParentNotFound = errors.New("parent organization not found")
	// ErrParentCycle is returned when a parent assignment would make an
	// organization its own ancestor.
	ErrParentCycle = errors.New("parent assignment would create a cycle")
	// ErrOrganizationHasChildren is returned when deleting an organization that still has children.
	ErrOrganizationHasChildren = errors.New("organization has child organizations")
	// ErrOrganizationInUse is returned when deleting an organization that still owns users or prices.
	ErrOrganizationInUse = errors.New("organization is referenced by users or prices")
)

// List returns every organization ordered by id.
func List(db *gorm.DB) ([]models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var orgs []models.Organization
	if err := db.Order("id").Find(&orgs).Error; err != nil {
		return nil, err
	}

	return orgs, nil
}

// Records returns the organization table as hierarchy builder input.
func Records(db *gorm.DB) ([]orgtree.Record, error) {
	orgs, err := List(db)
	if err != nil {
		return nil, err
	}

	out := make([]orgtree.Record, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, ToRecord(o))
	}

	return out, nil
}

// Forest loads the organization table and builds the hierarchy from it.
func Forest(db *gorm.DB) (*orgtree.Forest, error) {
	records, err := Records(db)
	if err != nil {
		return nil, err
	}

	return orgtree.Build(records), nil
}

// ToRecord converts a model into hierarchy builder input.
func ToRecord(o models.Organization) orgtree.Record {
	return orgtree.Record{
		ID:          o.ID,
		ParentID:    o.ParentID,
		Name:        o.Name,
		Level:       o.Level,
		Status:      string(o.Status),
		Description: o.Description,
	}
}

// Get retrieves an organization by id.
func Get(db *gorm.DB, id uint) (*models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var org models.Organization
	if err := db.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}

		return nil, err
	}

	return &org, nil
}

// Create inserts org below its parent (or as a root) and sets its level.
func Create(db *gorm.DB, org *models.Organization) error {
	if db == nil {
		return ErrDBNil
	}

	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return ErrNameEmpty
	}

	if org.Status == "" {
		org.Status = models.OrgStatusEnabled
	}

	return db.Transaction(func(tx *gorm.DB) error {
		forest, err := Forest(tx)
		if err != nil {
			return err
		}

		level, err := levelUnder(forest, org.ParentID)
		if err != nil {
			return err
		}

		org.ID = 0
		org.Level = level

		return tx.Create(org).Error
	})
}

// Update replaces the editable fields of the organization with the given id.
// Moving an organization below itself or one of its descendants is refused
// with ErrParentCycle. Levels of the moved subtree are recomputed.
func Update(db *gorm.DB, id uint, in models.Organization) (*models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	var out *models.Organization

	err := db.Transaction(func(tx *gorm.DB) error {
		org, err := Get(tx, id)
		if err != nil {
			return err
		}

		forest, err := Forest(tx)
		if err != nil {
			return err
		}

		if in.ParentID != nil {
			if err = checkParent(forest, id, *in.ParentID); err != nil {
				return err
			}
		}

		level, err := levelUnder(forest, in.ParentID)
		if err != nil {
			return err
		}

		org.Name = name
		org.ParentID = in.ParentID
		org.Description = in.Description
		org.Level = level

		if in.Status != "" {
			org.Status = in.Status
		}

		if err = tx.Select("Name", "ParentID", "Description", "Status", "Level").Save(org).Error; err != nil {
			return err
		}

		if err = relevel(tx, forest, id, level); err != nil {
			return err
		}

		out = org

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes an organization. Organizations with children, users or
// prices are never deleted; callers must move or remove those first.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, id); err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&models.Organization{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}

		if children > 0 {
			return ErrOrganizationHasChildren
		}

		var users, prices int64
		if err := tx.Model(&models.User{}).Where("organization_id = ?", id).Count(&users).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Price{}).Where("organization_id = ?", id).Count(&prices).Error; err != nil {
			return err
		}

		if users+prices > 0 {
			return ErrOrganizationInUse
		}

		return tx.Delete(&models.Organization{}, id).Error
	})
}

// levelUnder returns the level of a node placed below parentID. The level is
// taken from the parent's depth in forest, never from its stored level.
func levelUnder(forest *orgtree.Forest, parentID *uint) (int, error) {
	if parentID == nil {
		return 1, nil
	}

	parent, ok := forest.Node(*parentID)
	if !ok {
		return 0, ErrParentNotFound
	}

	if parent.Depth == 0 {
		return 0, ErrParentCycle
	}

	return parent.Depth + 1, nil
}

// checkParent refuses a parent that is id itself, one of its descendants, or
// a node that does not reach a root.
func checkParent(forest *orgtree.Forest, id, parentID uint) error {
	if parentID == id {
		return ErrParentCycle
	}

	ancestors, err := forest.AncestorsOf(parentID)
	if errors.Is(err, orgtree.ErrUnknownOrganization) {
		return ErrParentNotFound
	}

	if errors.Is(err, orgtree.ErrCyclicHierarchy) || slices.Contains(ancestors, id) {
		return ErrParentCycle
	}

	return err
}

// relevel rewrites the level of every descendant of id relative to the new
// level of id. Depth differences come from the forest built before the move.
// Nodes that were not reachable from a root are left alone.
func relevel(tx *gorm.DB, forest *orgtree.Forest, id uint, level int) error {
	top, ok := forest.Node(id)
	if !ok || top.Depth == 0 {
		return nil
	}

	descendants, err := forest.DescendantsOf(id)
	if err != nil {
		return fmt.Errorf("recompute levels below %d: %w", id, err)
	}

	for _, d := range descendants {
		n, ok := forest.Node(d)
		if !ok {
			continue
		}

		newLevel := level + n.Depth - top.Depth
		if newLevel == n.Level {
			continue
		}

		if err := tx.Model(&models.Organization{}).Where("id = ?", d).Update("level", newLevel).Error; err != nil {
			return err
		}
	}

	return nil
}
