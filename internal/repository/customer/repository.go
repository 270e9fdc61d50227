package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/repository/customer")

// ErrNotFound is returned when no customer has the requested phone.
var ErrNotFound = errors.New("customer not found")

// Repository reads and upserts customers.
type Repository struct{}

// NewRepository constructs a customer Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Upsert inserts the customer or, when the phone exists, overwrites name and
// city with the incoming values.
func (r *Repository) Upsert(ctx context.Context, db bun.IDB, customer *entity.Customer) error {
	if customer == nil {
		return errors.New("nil customer")
	}
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Upsert")
	defer span.End()

	q := db.NewInsert().Model(customer)
	switch db.Dialect().Name() {
	case dialect.MySQL:
		q = q.On("DUPLICATE KEY UPDATE").
			Set("name = VALUES(name)").
			Set("city = VALUES(city)")
	default:
		q = q.On("CONFLICT (phone) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("city = EXCLUDED.city")
	}

	if _, err := q.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return err
	}
	return nil
}

// GetByPhone fetches a customer by phone.
func (r *Repository) GetByPhone(ctx context.Context, db bun.IDB, phone string) (*entity.Customer, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.GetByPhone")
	defer span.End()

	customer := new(entity.Customer)
	err := db.NewSelect().Model(customer).Where("phone = ?", phone).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return customer, nil
}
