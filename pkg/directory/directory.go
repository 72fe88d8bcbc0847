// Package directory defines the read-only organizational lookups the engine
// consumes: users, departments, cost centers and the request-type catalog.
// These collaborators are owned elsewhere; the engine only reads them.
package directory

import (
	"context"
	"errors"
)

// Lookup errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrCostCenterNotFound = errors.New("cost center not found")
	ErrTypeNotFound       = errors.New("request type not found")
)

// User is a directory entry. Only active users receive notifications or count
// as approvers.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Active       bool     `json:"active"`
	DepartmentID string   `json:"department_id"`
	GroupIDs     []string `json:"group_ids,omitempty"`
}

// Department is an organizational unit owning DEPARTMENT steps.
// ApproverGroupID names the group that decides approval gates on the
// department's default routing path.
type Department struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Active          bool   `json:"active"`
	ApproverGroupID string `json:"approver_group_id,omitempty"`
}

// CostCenter is the cross-cutting cost dimension attached to solicitations.
type CostCenter struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RequestType is a catalog entry, e.g. RQ_063 (requisição de pessoal).
type RequestType struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Users resolves directory users.
type Users interface {
	UserByID(ctx context.Context, id string) (*User, error)
	ActiveUsersByDepartment(ctx context.Context, departmentID string) ([]*User, error)
	ActiveUsersByGroup(ctx context.Context, groupID string) ([]*User, error)
}

// Departments resolves departments by id or well-known code.
type Departments interface {
	DepartmentByID(ctx context.Context, id string) (*Department, error)
	DepartmentByCode(ctx context.Context, code string) (*Department, error)
}

// CostCenters resolves cost centers by id or well-known code.
type CostCenters interface {
	CostCenterByID(ctx context.Context, id string) (*CostCenter, error)
	CostCenterByCode(ctx context.Context, code string) (*CostCenter, error)
}

// Types resolves request types by id or well-known code.
type Types interface {
	TypeByID(ctx context.Context, id string) (*RequestType, error)
	TypeByCode(ctx context.Context, code string) (*RequestType, error)
}

// Directory bundles every lookup the engine needs.
type Directory interface {
	Users
	Departments
	CostCenters
	Types
}
