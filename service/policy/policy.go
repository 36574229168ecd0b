// Package policy decides who may do what to books and borrowings.
package policy

import "libraryapi/model"

type Action int

const (
	BookRead Action = iota
	BookWrite
	BorrowingRead
	BorrowingCreate
	BorrowingReturn
)

type Decision int

const (
	Allow Decision = iota
	AuthenticationRequired
	Forbidden
)

// rule holds the decision for a caller acting on their own resource and on somebody else's.
type rule struct{ own, others Decision }

var matrix = map[model.Role]map[Action]rule{
	model.RoleAnonymous: {
		BookRead:        {Allow, Allow},
		BookWrite:       {AuthenticationRequired, AuthenticationRequired},
		BorrowingRead:   {AuthenticationRequired, AuthenticationRequired},
		BorrowingCreate: {AuthenticationRequired, AuthenticationRequired},
		BorrowingReturn: {AuthenticationRequired, AuthenticationRequired},
	},
	model.RoleMember: {
		BookRead:        {Allow, Allow},
		BookWrite:       {Forbidden, Forbidden},
		BorrowingRead:   {Allow, Forbidden},
		BorrowingCreate: {Allow, Forbidden},
		BorrowingReturn: {Allow, Forbidden},
	},
	model.RoleStaff: {
		BookRead:        {Allow, Allow},
		BookWrite:       {Allow, Allow},
		BorrowingRead:   {Allow, Allow},
		BorrowingCreate: {Allow, Allow},
		BorrowingReturn: {Allow, Allow},
	},
}

// Evaluate looks up the capability matrix. Unknown roles are treated as anonymous.
func Evaluate(role model.Role, action Action, owner bool) Decision {
	actions, ok := matrix[role]
	if !ok {
		actions = matrix[model.RoleAnonymous]
	}
	r, ok := actions[action]
	if !ok {
		return Forbidden
	}
	if owner {
		return r.own
	}
	return r.others
}

// Check evaluates action for p against a resource owned by ownerID.
func Check(p model.Principal, action Action, ownerID int64) Decision {
	role := p.Role
	if !p.Authenticated() {
		role = model.RoleAnonymous
	}
	return Evaluate(role, action, p.Authenticated() && p.UserID == ownerID)
}

// CheckSelf evaluates an action on a resource the caller would own.
func CheckSelf(p model.Principal, action Action) Decision {
	return Check(p, action, p.UserID)
}
