package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidly/rental-system/internal/core/domain"
)

const collectionRentals = "rentals"

type RentalRepository struct {
	col *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{col: db.Collection(collectionRentals)}
}

type customerSnapshotDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Phone string             `bson:"phone"`
}

type movieSnapshotDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Title           string             `bson:"title"`
	DailyRentalRate float64            `bson:"dailyRentalRate"`
}

// dateReturned and rentalFee are stored as explicit nulls while active.
type rentalDoc struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Customer     customerSnapshotDoc `bson:"customer"`
	Movie        movieSnapshotDoc    `bson:"movie"`
	DateOut      time.Time           `bson:"dateOut"`
	DateReturned *time.Time          `bson:"dateReturned"`
	RentalFee    *float64            `bson:"rentalFee"`
}

func (d rentalDoc) toDomain() *domain.Rental {
	r := &domain.Rental{
		ID: d.ID.Hex(),
		Customer: domain.CustomerSnapshot{
			ID:    d.Customer.ID.Hex(),
			Name:  d.Customer.Name,
			Phone: d.Customer.Phone,
		},
		Movie: domain.MovieSnapshot{
			ID:              d.Movie.ID.Hex(),
			Title:           d.Movie.Title,
			DailyRentalRate: d.Movie.DailyRentalRate,
		},
		DateOut:   d.DateOut.UTC(),
		RentalFee: d.RentalFee,
	}
	if d.DateReturned != nil {
		t := d.DateReturned.UTC()
		r.DateReturned = &t
	}
	return r
}

func (r *RentalRepository) Create(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	customerID, err := primitive.ObjectIDFromHex(rental.Customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer id", domain.ErrInvalidRequest)
	}
	movieID, err := primitive.ObjectIDFromHex(rental.Movie.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: movie id", domain.ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := rentalDoc{
		ID:           primitive.NewObjectID(),
		Customer:     customerSnapshotDoc{ID: customerID, Name: rental.Customer.Name, Phone: rental.Customer.Phone},
		Movie:        movieSnapshotDoc{ID: movieID, Title: rental.Movie.Title, DailyRentalRate: rental.Movie.DailyRentalRate},
		DateOut:      rental.DateOut.UTC(),
		DateReturned: rental.DateReturned,
		RentalFee:    rental.RentalFee,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert rental: %w", err)
	}
	return doc.toDomain(), nil
}

// FindForReturn looks for the newest active rental of the pair first and
// then for the newest one of any state.
func (r *RentalRepository) FindForReturn(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	cid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, domain.ErrRentalNotFound
	}
	mid, err := primitive.ObjectIDFromHex(movieID)
	if err != nil {
		return nil, domain.ErrRentalNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pair := bson.M{"customer._id": cid, "movie._id": mid}
	active := bson.M{"customer._id": cid, "movie._id": mid, "dateReturned": nil}
	newest := options.FindOne().SetSort(bson.D{{Key: "dateOut", Value: -1}})

	for _, filter := range []bson.M{active, pair} {
		var doc rentalDoc
		err := r.col.FindOne(ctx, filter, newest).Decode(&doc)
		if err == nil {
			return doc.toDomain(), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find rental: %w", err)
		}
	}
	return nil, domain.ErrRentalNotFound
}

// MarkReturned is a compare-and-set on dateReturned == null. The driver
// matches both missing fields and explicit nulls.
func (r *RentalRepository) MarkReturned(ctx context.Context, rentalID string, returnedAt time.Time, fee float64) (*domain.Rental, error) {
	oid, err := primitive.ObjectIDFromHex(rentalID)
	if err != nil {
		return nil, domain.ErrRentalNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc rentalDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "dateReturned": nil},
		bson.M{"$set": bson.M{"dateReturned": returnedAt.UTC(), "rentalFee": fee}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReturnAlreadyProcessed
		}
		return nil, fmt.Errorf("mark rental returned: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes supports the pair lookup ordered by dateOut.
func (r *RentalRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "customer._id", Value: 1},
			{Key: "movie._id", Value: 1},
			{Key: "dateOut", Value: -1},
		},
	})
	return err
}
