package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/malkhana-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database. Lookups
// that match nothing return mongo.ErrNoDocuments.
type UserDatabase interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByBadgeID(ctx context.Context, badgeID string) (*models.User, error)
	Find(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Replace(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	return err
}

func (u *userDatabase) findOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, filter).Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return u.findOne(ctx, bson.M{"_id": id})
}

func (u *userDatabase) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.findOne(ctx, bson.M{"username": username})
}

func (u *userDatabase) FindByBadgeID(ctx context.Context, badgeID string) (*models.User, error) {
	return u.findOne(ctx, bson.M{"badgeId": badgeID})
}

func (u *userDatabase) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return u.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (u *userDatabase) Find(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	f := bson.M{}
	if filter.ExcludeSuperAdmin {
		f["role"] = bson.M{"$ne": models.RoleSuperAdmin}
	}
	if filter.Role != "" {
		if filter.ExcludeSuperAdmin && filter.Role == models.RoleSuperAdmin {
			return []models.User{}, nil
		}
		f["role"] = filter.Role
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return u.find(ctx, f, opts)
}

func (u *userDatabase) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.User, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := u.db.Collection(userName).Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) Count(ctx context.Context) (int64, error) {
	return u.db.Collection(userName).CountDocuments(ctx, bson.M{})
}

func (u *userDatabase) Replace(ctx context.Context, user models.User) error {
	res, err := u.db.Collection(userName).ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (u *userDatabase) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := u.db.Collection(userName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the unique indexes the user rules rely on. The partial
// index on role allows a single SUPER_ADMIN document, which closes the race
// between two concurrent first signups.
func (u *userDatabase) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "badgeId", Value: 1}},
			Options: options.Index().SetName(badgeIDIndex).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName(superAdminIndex).SetUnique(true).
				SetPartialFilterExpression(bson.M{"role": models.RoleSuperAdmin}),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	}
	if err := u.db.Collection(userName).CreateIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}
