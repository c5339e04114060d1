package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/repository"
	"github.com/utafrali/CardShopGo/pkg/database"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// CardRepository implements repository.CardRepository using PostgreSQL.
type CardRepository struct {
	pool database.DBTX
}

// NewCardRepository creates a new PostgreSQL-backed card repository.
func NewCardRepository(pool database.DBTX) *CardRepository {
	return &CardRepository{pool: pool}
}

// GetByID retrieves a card with its images, ordered by image position.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `
		SELECT id, name, price, available, created_at
		FROM cards
		WHERE id = $1`

	var c domain.Card
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Price,
		&c.Available,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("card", id)
		}
		return nil, fmt.Errorf("get card by id: %w", err)
	}

	images, err := r.imagesForCard(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Images = images

	return &c, nil
}

// GetAvailability returns the availability flag for each of the given ids
// that exists, using a single query. Unknown ids are simply absent from the
// returned map.
func (r *CardRepository) GetAvailability(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	args := make([]any, len(ids))
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	query := `
		SELECT id, available
		FROM cards
		WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		var available bool
		if err := rows.Scan(&id, &available); err != nil {
			return nil, fmt.Errorf("scan availability row: %w", err)
		}
		result[id] = available
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability rows: %w", err)
	}

	return result, nil
}

// MarkSold flips availability false→true-guarded in a single conditional
// statement. Two concurrent calls for the same id can never both succeed: the
// row-level atomicity of the UPDATE guarantees at most one sees RowsAffected
// of 1, and the flag never reverts to true.
func (r *CardRepository) MarkSold(ctx context.Context, id string) error {
	query := `
		UPDATE cards
		SET available = FALSE
		WHERE id = $1 AND available = TRUE`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark card sold: %w", err)
	}

	if ct.RowsAffected() == 1 {
		return nil
	}

	// The conditional update matched nothing: distinguish "already sold"
	// from "no such card".
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check card existence: %w", err)
	}
	if exists {
		return repository.ErrAlreadySold
	}
	return apperrors.NotFound("card", id)
}

// Create inserts the card and its images in one transaction.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cardQuery := `
		INSERT INTO cards (id, name, price, available, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, cardQuery,
		card.ID,
		card.Name,
		card.Price,
		card.Available,
		card.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert card: %w", err)
	}

	imageQuery := `
		INSERT INTO card_images (card_id, url, public_id, position)
		VALUES ($1, $2, $3, $4)`

	for _, img := range card.Images {
		var publicID *string
		if img.PublicID != "" {
			pid := img.PublicID
			publicID = &pid
		}
		if _, err := tx.Exec(ctx, imageQuery, card.ID, img.URL, publicID, img.Position); err != nil {
			return fmt.Errorf("insert card image: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListAvailable returns all cards still for sale with their images, newest
// first.
func (r *CardRepository) ListAvailable(ctx context.Context) ([]domain.Card, error) {
	query := `
		SELECT c.id, c.name, c.price, c.available, c.created_at,
		       COALESCE(i.url, ''), COALESCE(i.public_id, ''), COALESCE(i.position, 0)
		FROM cards c
		LEFT JOIN card_images i ON i.card_id = c.id
		WHERE c.available = TRUE
		ORDER BY c.created_at DESC, c.id, i.position ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available cards: %w", err)
	}
	defer rows.Close()

	var (
		cards []domain.Card
		index = map[string]int{}
	)

	for rows.Next() {
		var (
			c   domain.Card
			img domain.CardImage
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.Available, &c.CreatedAt, &img.URL, &img.PublicID, &img.Position); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}

		pos, seen := index[c.ID]
		if !seen {
			index[c.ID] = len(cards)
			cards = append(cards, c)
			pos = len(cards) - 1
		}
		if img.URL != "" {
			cards[pos].Images = append(cards[pos].Images, img)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}

	if cards == nil {
		cards = []domain.Card{}
	}

	return cards, nil
}

// imagesForCard loads the ordered image list for one card.
func (r *CardRepository) imagesForCard(ctx context.Context, cardID string) ([]domain.CardImage, error) {
	query := `
		SELECT url, COALESCE(public_id, ''), position
		FROM card_images
		WHERE card_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("get card images: %w", err)
	}
	defer rows.Close()

	var images []domain.CardImage
	for rows.Next() {
		var img domain.CardImage
		if err := rows.Scan(&img.URL, &img.PublicID, &img.Position); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}

	return images, nil
}
