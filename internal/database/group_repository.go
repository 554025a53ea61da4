package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"letterwatch/models"
)

// ErrGroupNotFound is returned when a group id does not exist.
var ErrGroupNotFound = errors.New("group not found")

// GroupRepository persists named sets of usernames.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a group repository backed by the given connection.
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns all saved groups, newest first.
func (r *GroupRepository) List() ([]models.Group, error) {
	rows, err := r.db.Query("SELECT id, name, users, created_at FROM user_groups ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows.Scan)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// Get returns a single group by id.
func (r *GroupRepository) Get(id string) (*models.Group, error) {
	row := r.db.QueryRow("SELECT id, name, users, created_at FROM user_groups WHERE id = ?", id)
	group, err := scanGroup(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// Create stores a new group and returns it with its generated id.
func (r *GroupRepository) Create(name string, users []string) (*models.Group, error) {
	group := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Users:     users,
		CreatedAt: time.Now(),
	}

	raw, err := json.Marshal(group.Users)
	if err != nil {
		return nil, fmt.Errorf("encode group users: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO user_groups (id, name, users, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, string(raw), group.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}

	return &group, nil
}

// Delete removes a group by id. Returns ErrGroupNotFound when nothing matched.
func (r *GroupRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM user_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group rows affected: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func scanGroup(scan func(dest ...any) error) (models.Group, error) {
	var (
		group     models.Group
		rawUsers  string
		createdAt int64
	)

	if err := scan(&group.ID, &group.Name, &rawUsers, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Group{}, err
		}
		return models.Group{}, fmt.Errorf("scan group: %w", err)
	}

	if err := json.Unmarshal([]byte(rawUsers), &group.Users); err != nil {
		return models.Group{}, fmt.Errorf("decode group users: %w", err)
	}
	group.CreatedAt = time.Unix(createdAt, 0)

	return group, nil
}
