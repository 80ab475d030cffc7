package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
)

const memberColumns = `id, nickname, rank, is_admin, position, department, on_duty, is_head,
       last_promotion_date, department_history, created_at, updated_at`

// MemberRepository persists roster members and their penalties.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a member row.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	if member.DepartmentHistory == nil {
		member.DepartmentHistory = pq.StringArray{}
	}
	const query = `INSERT INTO members
	(id, nickname, rank, is_admin, position, department, on_duty, is_head, last_promotion_date, department_history, created_at, updated_at)
	VALUES (:id, :nickname, :rank, :is_admin, :position, :department, :on_duty, :is_head, :last_promotion_date, :department_history, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, member); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// GetByID fetches a member with penalties.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

// GetForUpdate fetches a member and locks the row for the running transaction.
func (r *MemberRepository) GetForUpdate(ctx context.Context, id string) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id)
}

// GetByNickname performs a case-insensitive lookup.
func (r *MemberRepository) GetByNickname(ctx context.Context, nickname string) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE LOWER(nickname) = LOWER($1)`, nickname)
}

// FindDirector returns the non-admin member holding the director rank.
func (r *MemberRepository) FindDirector(ctx context.Context) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE rank = $1 AND is_admin = FALSE ORDER BY updated_at LIMIT 1 FOR UPDATE`, models.RankDirector)
}

func (r *MemberRepository) get(ctx context.Context, query string, args ...interface{}) (*models.Member, error) {
	exec := database.Executor(ctx, r.db)
	var member models.Member
	if err := sqlx.GetContext(ctx, exec, &member, query, args...); err != nil {
		return nil, err
	}
	penalties, err := r.ListPenalties(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	member.Penalties = penalties
	return &member, nil
}

// ExistsByNickname reports whether a nickname is taken, ignoring case.
func (r *MemberRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM members WHERE LOWER(nickname) = LOWER($1))`
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &exists, query, nickname); err != nil {
		return false, fmt.Errorf("check nickname: %w", err)
	}
	return exists, nil
}

// List returns members ordered by rank then nickname, with penalties loaded.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + memberColumns + ` FROM members`)
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(nickname) LIKE $%d", len(args)))
	}
	if filter.Leadership {
		args = append(args, models.RankDeputyDirector)
		conditions = append(conditions, fmt.Sprintf("(is_admin = TRUE OR rank >= $%d)", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY is_admin DESC, rank DESC, nickname ASC")

	exec := database.Executor(ctx, r.db)
	var members []models.Member
	if err := sqlx.SelectContext(ctx, exec, &members, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if len(members) == 0 {
		return members, nil
	}
	if err := r.attachPenalties(ctx, members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) attachPenalties(ctx context.Context, members []models.Member) error {
	ids := make([]string, len(members))
	for i := range members {
		ids[i] = members[i].ID
	}
	query, args, err := sqlx.In(`SELECT id, member_id, type, reason, issued_by, issued_at
	FROM member_penalties WHERE member_id IN (?) ORDER BY issued_at ASC, id ASC`, ids)
	if err != nil {
		return fmt.Errorf("build penalty query: %w", err)
	}
	exec := database.Executor(ctx, r.db)
	var penalties []models.Penalty
	if err := sqlx.SelectContext(ctx, exec, &penalties, exec.Rebind(query), args...); err != nil {
		return fmt.Errorf("list penalties: %w", err)
	}
	byMember := make(map[string][]models.Penalty, len(members))
	for _, p := range penalties {
		byMember[p.MemberID] = append(byMember[p.MemberID], p)
	}
	for i := range members {
		members[i].Penalties = byMember[members[i].ID]
	}
	return nil
}

// Save persists mutable member columns and prunes penalties no longer present
// in member.Penalties.
func (r *MemberRepository) Save(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().UTC()
	if member.DepartmentHistory == nil {
		member.DepartmentHistory = pq.StringArray{}
	}
	exec := database.Executor(ctx, r.db)
	const query = `UPDATE members SET rank = :rank, is_admin = :is_admin, position = :position, department = :department,
	on_duty = :on_duty, is_head = :is_head, last_promotion_date = :last_promotion_date,
	department_history = :department_history, updated_at = :updated_at
	WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, exec, query, member)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check member update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	keep := make([]string, 0, len(member.Penalties))
	for _, p := range member.Penalties {
		keep = append(keep, p.ID)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM member_penalties WHERE member_id = $1 AND NOT (id = ANY($2))`, member.ID, pq.Array(keep)); err != nil {
		return fmt.Errorf("prune penalties: %w", err)
	}
	return nil
}

// Delete removes a member and, through the foreign key, their penalties.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check member delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddPenalty appends a penalty to a member.
func (r *MemberRepository) AddPenalty(ctx context.Context, penalty *models.Penalty) error {
	if penalty.ID == "" {
		penalty.ID = uuid.NewString()
	}
	if penalty.IssuedAt.IsZero() {
		penalty.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO member_penalties (id, member_id, type, reason, issued_by, issued_at)
	VALUES (:id, :member_id, :type, :reason, :issued_by, :issued_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, penalty); err != nil {
		return fmt.Errorf("add penalty: %w", err)
	}
	return nil
}

// ListPenalties returns a member's penalties oldest first.
func (r *MemberRepository) ListPenalties(ctx context.Context, memberID string) ([]models.Penalty, error) {
	const query = `SELECT id, member_id, type, reason, issued_by, issued_at
	FROM member_penalties WHERE member_id = $1 ORDER BY issued_at ASC, id ASC`
	var penalties []models.Penalty
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &penalties, query, memberID); err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	return penalties, nil
}
