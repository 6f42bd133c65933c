// Package userinfo reads the per-user grants documents. Grants are the sole
// authorization mechanism; the only thing above them is a flat superadmin
// allow-list from the environment.
package userinfo

import (
	"context"
	"errors"
	"time"

	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

type Service struct {
	docs        store.Store
	superadmins map[string]bool
}

func New(docs store.Store, superadminUIDs []string) *Service {
	admins := make(map[string]bool, len(superadminUIDs))
	for _, uid := range superadminUIDs {
		admins[uid] = true
	}
	return &Service{docs: docs, superadmins: admins}
}

// IsSuperadmin reports whether the UID is on the env allow-list.
func (s *Service) IsSuperadmin(uid string) bool {
	return s.superadmins[uid]
}

// Get returns the grants of one user, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, uid string) (models.UserInfo, error) {
	data, err := s.docs.Get(ctx, models.UserPath(uid))
	if err != nil {
		return models.UserInfo{}, err
	}
	return decode(data), nil
}

// Put writes the grants document of one user.
func (s *Service) Put(ctx context.Context, uid string, info models.UserInfo) error {
	return s.docs.Set(ctx, models.UserPath(uid), info)
}

// Delete removes the grants document of one user.
func (s *Service) Delete(ctx context.Context, uid string) error {
	return s.docs.Delete(ctx, models.UserPath(uid))
}

// List returns all grants documents keyed by UID.
func (s *Service) List(ctx context.Context) (map[string]models.UserInfo, error) {
	docs, err := s.docs.Docs(ctx, models.CollUsers)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.UserInfo, len(docs))
	for _, d := range docs {
		out[d.ID] = decode(d.Data)
	}
	return out, nil
}

// CanDeleteModules reports whether the user may run the deletion
// orchestrator. A missing grants document means no permissions at all.
func (s *Service) CanDeleteModules(ctx context.Context, uid string) (bool, error) {
	if s.superadmins[uid] {
		return true, nil
	}
	info, err := s.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.AllowDeleteModule, nil
}

// CanCreateModules reports whether the user may create modules.
func (s *Service) CanCreateModules(ctx context.Context, uid string) (bool, error) {
	if s.superadmins[uid] {
		return true, nil
	}
	info, err := s.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.AllowCreateModule, nil
}

// CanAccessProduct reports whether the user's project scope covers productID.
func (s *Service) CanAccessProduct(ctx context.Context, uid, productID string) (bool, error) {
	if s.superadmins[uid] {
		return true, nil
	}
	info, err := s.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.AllProjects {
		return true, nil
	}
	for _, id := range info.Projects {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

func decode(data map[string]interface{}) models.UserInfo {
	info := models.UserInfo{}
	info.Email, _ = data["email"].(string)
	info.CreatedBy, _ = data["createdBy"].(string)
	info.AllowDeleteModule, _ = data["allowDeleteModule"].(bool)
	info.AllowCreateModule, _ = data["allowCreateModule"].(bool)
	// Projects is stored as "all" or a list of product ids.
	switch v := data["projects"].(type) {
	case string:
		info.AllProjects = v == "all"
	case []interface{}:
		for _, raw := range v {
			if id, ok := raw.(string); ok {
				info.Projects = append(info.Projects, id)
			}
		}
	}
	if all, ok := data["allProjects"].(bool); ok && all {
		info.AllProjects = true
	}
	if ts, ok := data["createdAt"].(time.Time); ok {
		info.CreatedAt = ts
	}
	return info
}
