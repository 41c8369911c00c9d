// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package todo defines the rows exchanged with the todos resource: the Task read
// back from the server, the TaskList batch a query returns, and the write-only
// Draft shape accepted on insert.
package todo

import (
	"encoding/json"
	"time"

	apperrors "supatodo/cli/internal/errors"

	"github.com/google/uuid"
)

// Resource is the REST resource name the tasks live under.
const Resource = "todos"

// Task is a single row of the todos resource.
type Task struct {
	ID         int64     `json:"id"`
	InsertedAt time.Time `json:"inserted_at"`
	IsComplete bool      `json:"is_complete"`
	Task       string    `json:"task"`
	UserID     uuid.UUID `json:"user_id"`
}

// TaskList is an ordered batch of tasks in server response order. It may be empty.
type TaskList []Task

// Draft is the insert payload. Server-assigned fields (id, inserted_at) are absent.
type Draft struct {
	IsComplete bool      `json:"is_complete"`
	Task       string    `json:"task"`
	UserID     uuid.UUID `json:"user_id"`
}

// NewDraft builds an incomplete task owned by ownerID.
// ownerID must be a UUID; anything else is a construction error and nothing
// should be dispatched.
func NewDraft(description, ownerID string) (Draft, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Draft{}, apperrors.Wrap(apperrors.ConstructionFailed, "owner id is not a uuid", err)
	}
	if owner == uuid.Nil {
		return Draft{}, apperrors.New(apperrors.ConstructionFailed, "owner id is the nil uuid")
	}
	return Draft{Task: description, UserID: owner}, nil
}

// Payload serializes the draft to the JSON body sent on insert.
func (d Draft) Payload() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ConstructionFailed, "marshal draft", err)
	}
	return string(b), nil
}

// Matches reports whether t carries the client-controlled fields of d.
func (d Draft) Matches(t Task) bool {
	return t.Task == d.Task && t.IsComplete == d.IsComplete && t.UserID == d.UserID
}
