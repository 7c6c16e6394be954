package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kingstar-club/membership-api/internal/models"
)

// Sentinel errors surfaced by the persistence layer. Services translate them
// into the typed API errors.
var (
	// ErrVersionConflict means a compare-and-swap update lost against a
	// concurrent writer.
	ErrVersionConflict = errors.New("member version conflict")
	// ErrDuplicatePhone means the phone uniqueness constraint fired.
	ErrDuplicatePhone = errors.New("phone already registered")
	// ErrDuplicateMembershipID means the membership identifier uniqueness
	// constraint fired.
	ErrDuplicateMembershipID = errors.New("membership identifier already issued")
)

const memberColumns = `id, full_name, nickname, father_name, email, phone, whatsapp, age, date_of_birth, blood_group, address,
        photo_url, photo_id, payment_proof_url, payment_proof_id,
        status, membership_id, approved_at, expiry_date, version, created_at, updated_at`

// MemberRepository manages persistence for member records.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs a MemberRepository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// List returns members matching the provided filters, most recent first.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(nickname) LIKE $%d OR phone LIKE $%d OR LOWER(membership_id) LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM members WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		memberColumns, where, size, offset)

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM members WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	return members, total, nil
}

// FindByID fetches a member by primary key.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE id = $1", memberColumns)
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByCredentials locates an approved-or-not member by phone and
// membership identifier, used by member login.
func (r *MemberRepository) FindByCredentials(ctx context.Context, phone, membershipID string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE phone = $1 AND membership_id = $2", memberColumns)
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, phone, membershipID); err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByPhone checks if a member with the given phone exists, optionally
// excluding an ID.
func (r *MemberRepository) ExistsByPhone(ctx context.Context, phone string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM members WHERE phone = $1"
	args := []interface{}{phone}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check phone: %w", err)
	}
	return true, nil
}

// Create inserts a new member record.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	member.Version = 1
	const query = `INSERT INTO members (id, full_name, nickname, father_name, email, phone, whatsapp, age, date_of_birth, blood_group, address,
        photo_url, photo_id, payment_proof_url, payment_proof_id,
        status, membership_id, approved_at, expiry_date, version, created_at, updated_at)
        VALUES (:id, :full_name, :nickname, :father_name, :email, :phone, :whatsapp, :age, :date_of_birth, :blood_group, :address,
        :photo_url, :photo_id, :payment_proof_url, :payment_proof_id,
        :status, :membership_id, :approved_at, :expiry_date, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return translateUniqueViolation(err, fmt.Errorf("create member: %w", err))
	}
	return nil
}

// Update persists the member with an optimistic version check. The in-memory
// version is bumped on success; a concurrent writer makes the call fail with
// ErrVersionConflict and no mutation.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	expected := member.Version
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE members SET full_name = :full_name, nickname = :nickname, father_name = :father_name, email = :email,
        phone = :phone, whatsapp = :whatsapp, age = :age, date_of_birth = :date_of_birth, blood_group = :blood_group, address = :address,
        photo_url = :photo_url, photo_id = :photo_id, payment_proof_url = :payment_proof_url, payment_proof_id = :payment_proof_id,
        status = :status, membership_id = :membership_id, approved_at = :approved_at, expiry_date = :expiry_date,
        version = version + 1, updated_at = :updated_at
        WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return translateUniqueViolation(err, fmt.Errorf("update member: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	member.Version = expected + 1
	return nil
}

// Delete permanently removes a member record.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IssuedIdentifiers returns every assigned membership identifier starting
// with the given prefix.
func (r *MemberRepository) IssuedIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	const query = "SELECT membership_id FROM members WHERE membership_id IS NOT NULL AND membership_id LIKE $1"
	if err := r.db.SelectContext(ctx, &ids, query, likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("scan issued identifiers: %w", err)
	}
	return ids, nil
}

// AttachmentIdentifiers returns the storage identifiers of every attachment
// still referenced by a member record. The upload cleanup job uses it to
// avoid removing files that belong to live records.
func (r *MemberRepository) AttachmentIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	const query = `SELECT photo_id FROM members WHERE photo_id IS NOT NULL
        UNION SELECT payment_proof_id FROM members WHERE payment_proof_id IS NOT NULL`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("scan attachment identifiers: %w", err)
	}
	referenced := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		referenced[id] = struct{}{}
	}
	return referenced, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(s)
}

func likePrefix(prefix string) string {
	return escapeLike(prefix) + "%"
}

func translateUniqueViolation(err, fallback error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "phone"):
			return ErrDuplicatePhone
		case strings.Contains(pqErr.Constraint, "membership_id"):
			return ErrDuplicateMembershipID
		}
	}
	return fallback
}
