package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelmates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRequestsStore persists the request ledger and the friend edge set.
// Requests keep their terminal rows; edges are normalized with user_a < user_b
// so each friendship is exactly one row.
type FriendRequestsStore struct {
	pool *pgxpool.Pool
}

func NewFriendRequestsStore(pool *pgxpool.Pool) *FriendRequestsStore {
	return &FriendRequestsStore{pool: pool}
}

func (s *FriendRequestsStore) CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error) {
	friends, err := s.AreFriends(ctx, fromID, toID)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if friends {
		return domain.FriendRequest{}, domain.ErrAlreadyFriends
	}

	const q = `
		INSERT INTO friend_requests (from_user, to_user, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var idUUID pgtype.UUID
	if err := s.pool.QueryRow(ctx, q, fromID, toID, when).Scan(&idUUID); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.FriendRequest{}, domain.ErrDuplicateRequest
		}
		if errors.As(err, &pgerr) && pgerr.Code == "23503" {
			return domain.FriendRequest{}, domain.ErrNotFound
		}
		return domain.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	return domain.FriendRequest{
		ID:        uuidOrEmpty(idUUID),
		FromUser:  fromID,
		ToUser:    toID,
		Status:    domain.RequestStatusPending,
		CreatedAt: when,
	}, nil
}

func (s *FriendRequestsStore) GetRequest(ctx context.Context, requestID string) (domain.FriendRequest, error) {
	const q = `
		SELECT id, from_user, to_user, status, created_at, resolved_at
		FROM friend_requests
		WHERE id = $1
	`
	return scanRequestRow(s.pool.QueryRow(ctx, q, requestID))
}

// AcceptRequest resolves a pending request addressed to toUserID and records
// the resulting edge in the same transaction. The update is guarded by owner
// and status; on a miss the row is re-read to tell not-found, wrong owner and
// already-resolved apart.
func (s *FriendRequestsStore) AcceptRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE friend_requests
		SET status = 'accepted', resolved_at = $3
		WHERE id = $1 AND to_user = $2 AND status = 'pending'
		RETURNING id, from_user, to_user, status, created_at, resolved_at
	`
	req, err := scanRequestRow(tx.QueryRow(ctx, q, requestID, toUserID, when))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FriendRequest{}, s.classifyTransitionMiss(ctx, requestID, toUserID)
		}
		return domain.FriendRequest{}, err
	}

	const edgeQ = `
		INSERT INTO friend_edges (user_a, user_b, created_at)
		VALUES (LEAST($1::uuid, $2::uuid), GREATEST($1::uuid, $2::uuid), $3)
		ON CONFLICT (user_a, user_b) DO NOTHING
	`
	if _, err := tx.Exec(ctx, edgeQ, req.FromUser, req.ToUser, when); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("create friend edge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
	}
	return req, nil
}

// RefuseRequest resolves a pending request without creating an edge. The
// refused row stays in the ledger, so a later accept of the same request
// reports already-resolved rather than silently succeeding.
func (s *FriendRequestsStore) RefuseRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	const q = `
		UPDATE friend_requests
		SET status = 'refused', resolved_at = $3
		WHERE id = $1 AND to_user = $2 AND status = 'pending'
		RETURNING id, from_user, to_user, status, created_at, resolved_at
	`
	req, err := scanRequestRow(s.pool.QueryRow(ctx, q, requestID, toUserID, when))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FriendRequest{}, s.classifyTransitionMiss(ctx, requestID, toUserID)
		}
		return domain.FriendRequest{}, err
	}
	return req, nil
}

// CancelRequest withdraws the sender's pending request toward toID.
func (s *FriendRequestsStore) CancelRequest(ctx context.Context, fromID, toID string, when time.Time) error {
	const q = `
		UPDATE friend_requests
		SET status = 'cancelled', resolved_at = $3
		WHERE from_user = $1 AND to_user = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, fromID, toID, when)
	if err != nil {
		return fmt.Errorf("cancel friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendRequestsStore) RemoveEdge(ctx context.Context, userID, friendID string) error {
	const q = `
		DELETE FROM friend_edges
		WHERE user_a = LEAST($1::uuid, $2::uuid) AND user_b = GREATEST($1::uuid, $2::uuid)
	`
	ct, err := s.pool.Exec(ctx, q, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friend edge: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendRequestsStore) AreFriends(ctx context.Context, a, b string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM friend_edges
			WHERE user_a = LEAST($1::uuid, $2::uuid) AND user_b = GREATEST($1::uuid, $2::uuid)
		)
	`
	var exists bool
	if err := s.pool.QueryRow(ctx, q, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("check friend edge: %w", err)
	}
	return exists, nil
}

func (s *FriendRequestsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	const q = `
		SELECT u.id, u.username, u.full_name
		FROM friend_edges e
		JOIN users u ON u.id = CASE WHEN e.user_a = $1 THEN e.user_b ELSE e.user_a END
		WHERE e.user_a = $1 OR e.user_b = $1
		ORDER BY u.username ASC
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	out := []domain.UserSummary{}
	for rows.Next() {
		var idUUID pgtype.UUID
		var username string
		var fullName pgtype.Text
		if err := rows.Scan(&idUUID, &username, &fullName); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, domain.UserSummary{ID: uuidOrEmpty(idUUID), Username: username, FullName: textOrEmpty(fullName)})
	}
	return out, rows.Err()
}

// ListIncoming returns the pending requests addressed to userID, newest
// first, with the counterpart summary filled in.
func (s *FriendRequestsStore) ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	const q = `
		SELECT r.id, r.from_user, r.to_user, r.status, r.created_at, r.resolved_at,
		       u.id, u.username, u.full_name
		FROM friend_requests r
		JOIN users u ON u.id = r.from_user
		WHERE r.to_user = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`
	return s.listRequests(ctx, q, userID)
}

// ListOutgoing returns the pending requests sent by userID, newest first.
func (s *FriendRequestsStore) ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	const q = `
		SELECT r.id, r.from_user, r.to_user, r.status, r.created_at, r.resolved_at,
		       u.id, u.username, u.full_name
		FROM friend_requests r
		JOIN users u ON u.id = r.to_user
		WHERE r.from_user = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`
	return s.listRequests(ctx, q, userID)
}

func (s *FriendRequestsStore) listRequests(ctx context.Context, query, userID string) ([]domain.FriendRequest, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	out := []domain.FriendRequest{}
	for rows.Next() {
		var (
			req        domain.FriendRequest
			idUUID     pgtype.UUID
			fromUUID   pgtype.UUID
			toUUID     pgtype.UUID
			resolvedTS pgtype.Timestamptz
			otherUUID  pgtype.UUID
			fullName   pgtype.Text
		)
		err := rows.Scan(
			&idUUID, &fromUUID, &toUUID, &req.Status, &req.CreatedAt, &resolvedTS,
			&otherUUID, &req.User.Username, &fullName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		req.ID = uuidOrEmpty(idUUID)
		req.FromUser = uuidOrEmpty(fromUUID)
		req.ToUser = uuidOrEmpty(toUUID)
		req.ResolvedAt = timestamptzPtr(resolvedTS)
		req.User.ID = uuidOrEmpty(otherUUID)
		req.User.FullName = textOrEmpty(fullName)
		out = append(out, req)
	}
	return out, rows.Err()
}

// classifyTransitionMiss explains why a guarded status update matched no row.
func (s *FriendRequestsStore) classifyTransitionMiss(ctx context.Context, requestID, toUserID string) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ToUser != toUserID {
		return domain.ErrUnauthorized
	}
	if req.Status.Resolved() {
		return domain.ErrAlreadyResolved
	}
	return domain.ErrNotFound
}

func scanRequestRow(row pgx.Row) (domain.FriendRequest, error) {
	var (
		req        domain.FriendRequest
		idUUID     pgtype.UUID
		fromUUID   pgtype.UUID
		toUUID     pgtype.UUID
		resolvedTS pgtype.Timestamptz
	)
	err := row.Scan(&idUUID, &fromUUID, &toUUID, &req.Status, &req.CreatedAt, &resolvedTS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FriendRequest{}, domain.ErrNotFound
		}
		return domain.FriendRequest{}, fmt.Errorf("get friend request: %w", err)
	}

	req.ID = uuidOrEmpty(idUUID)
	req.FromUser = uuidOrEmpty(fromUUID)
	req.ToUser = uuidOrEmpty(toUUID)
	req.ResolvedAt = timestamptzPtr(resolvedTS)
	return req, nil
}
