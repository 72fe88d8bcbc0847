package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Static is a Directory loaded once from a JSON document. Deployments without
// an HR system integration point the binaries at a file; tests build one
// directly from the structs.
type Static struct {
	UserEntries       []*User        `json:"users"`
	DepartmentEntries []*Department  `json:"departments"`
	CostCenterEntries []*CostCenter  `json:"cost_centers"`
	TypeEntries       []*RequestType `json:"types"`
}

var _ Directory = (*Static)(nil)

// LoadStatic reads a Static directory from a JSON file.
func LoadStatic(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}

	static := &Static{}

	err = json.Unmarshal(raw, static)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}

	return static, nil
}

func (s *Static) UserByID(ctx context.Context, id string) (*User, error) {
	for _, user := range s.UserEntries {
		if user.ID == id {
			return user, nil
		}
	}

	return nil, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
}

func (s *Static) ActiveUsersByDepartment(ctx context.Context, departmentID string) ([]*User, error) {
	users := make([]*User, 0)

	for _, user := range s.UserEntries {
		if user.Active && user.DepartmentID == departmentID {
			users = append(users, user)
		}
	}

	return users, nil
}

func (s *Static) ActiveUsersByGroup(ctx context.Context, groupID string) ([]*User, error) {
	users := make([]*User, 0)

	for _, user := range s.UserEntries {
		if !user.Active {
			continue
		}

		for _, group := range user.GroupIDs {
			if group == groupID {
				users = append(users, user)

				break
			}
		}
	}

	return users, nil
}

func (s *Static) DepartmentByID(ctx context.Context, id string) (*Department, error) {
	for _, department := range s.DepartmentEntries {
		if department.ID == id {
			return department, nil
		}
	}

	return nil, fmt.Errorf("department %q: %w", id, ErrDepartmentNotFound)
}

func (s *Static) DepartmentByCode(ctx context.Context, code string) (*Department, error) {
	for _, department := range s.DepartmentEntries {
		if department.Code == code {
			return department, nil
		}
	}

	return nil, fmt.Errorf("department code %q: %w", code, ErrDepartmentNotFound)
}

func (s *Static) CostCenterByID(ctx context.Context, id string) (*CostCenter, error) {
	for _, costCenter := range s.CostCenterEntries {
		if costCenter.ID == id {
			return costCenter, nil
		}
	}

	return nil, fmt.Errorf("cost center %q: %w", id, ErrCostCenterNotFound)
}

func (s *Static) CostCenterByCode(ctx context.Context, code string) (*CostCenter, error) {
	for _, costCenter := range s.CostCenterEntries {
		if costCenter.Code == code {
			return costCenter, nil
		}
	}

	return nil, fmt.Errorf("cost center code %q: %w", code, ErrCostCenterNotFound)
}

func (s *Static) TypeByID(ctx context.Context, id string) (*RequestType, error) {
	for _, requestType := range s.TypeEntries {
		if requestType.ID == id {
			return requestType, nil
		}
	}

	return nil, fmt.Errorf("request type %q: %w", id, ErrTypeNotFound)
}

func (s *Static) TypeByCode(ctx context.Context, code string) (*RequestType, error) {
	for _, requestType := range s.TypeEntries {
		if requestType.Code == code {
			return requestType, nil
		}
	}

	return nil, fmt.Errorf("request type code %q: %w", code, ErrTypeNotFound)
}
