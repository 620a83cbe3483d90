package service

import (
	"StudyVault/internal/dto"
	"StudyVault/model"
	"fmt"
	"strings"
)

// SearchMaterials runs a catalogue search scoped to what the caller may
// see. Matching is a LIKE over title, description, and author.
func SearchMaterials(req *dto.SearchMaterialsRequest, userID uint64, userRole string) ([]model.Material, int64, error) {
	query := visibleMaterialsQuery(userID, userRole)

	like := fmt.Sprintf("%%%s%%", strings.TrimSpace(req.Query))
	query = query.Where("(title LIKE ? OR description LIKE ? OR author LIKE ?)", like, like, like)

	if req.MaterialType != "" {
		query = query.Where("material_type = ?", req.MaterialType)
	}
	if req.AccessType != "" {
		query = query.Where("access_type = ?", req.AccessType)
	}

	return pageMaterials(query, req.Page, req.PageSize, req.OrderBy, req.OrderDesc)
}
